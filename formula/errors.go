package formula

import (
	"fmt"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/variable"
)

// CalculationImpossibleError reports a variable that has neither an event
// override nor a global default. VariableID is nil when the symbol is not
// defined at all.
type CalculationImpossibleError struct {
	Symbol      string
	VariableID  id.VariableID
	Description string
	EventID     id.EventID
}

func newImpossible(eventID id.EventID, symbol string, v *variable.Variable) *CalculationImpossibleError {
	e := &CalculationImpossibleError{Symbol: symbol, EventID: eventID}
	if v != nil {
		e.VariableID = v.ID
		e.Description = v.Description
	}
	return e
}

func (e *CalculationImpossibleError) Error() string {
	if e.VariableID.IsNil() {
		return fmt.Sprintf("formula: calculation impossible: variable %q is not defined", e.Symbol)
	}
	return fmt.Sprintf("formula: calculation impossible: variable %q has no value for event %s", e.Symbol, e.EventID)
}

// Is makes errors.Is(err, ErrCalculationImpossible) match.
func (e *CalculationImpossibleError) Is(target error) bool {
	return target == ErrCalculationImpossible
}

// Defined reports whether the symbol names a defined variable.
func (e *CalculationImpossibleError) Defined() bool {
	return !e.VariableID.IsNil()
}

// Key identifies the unresolved variable, falling back to the symbol.
func (e *CalculationImpossibleError) Key() string {
	if e.Defined() {
		return e.VariableID.String()
	}
	return "symbol:" + e.Symbol
}
