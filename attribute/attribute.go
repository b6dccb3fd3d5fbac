// Package attribute defines administrator-configured custom fields and the
// values participants, participations and employees select for them.
package attribute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/id"
)

var (
	ErrFormulaOnText = errors.New("attribute: text attributes cannot carry a formula")
	ErrUnknownKind   = errors.New("attribute: unknown kind")
	ErrUnknownOption = errors.New("attribute: unknown choice option")
	ErrInvalidValue  = errors.New("attribute: invalid field value")
	ErrNotNumeric    = errors.New("attribute: value has no numeric meaning")
)

// Kind is the input kind of an attribute.
type Kind string

const (
	KindNumber      Kind = "number"
	KindBool        Kind = "bool"
	KindChoice      Kind = "choice"
	KindMultiChoice Kind = "multi_choice"
	KindText        Kind = "text"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindNumber, KindBool, KindChoice, KindMultiChoice, KindText:
		return true
	}
	return false
}

// Usage flags where an attribute may be filled out.
type Usage struct {
	Participant   bool `json:"participant"`
	Participation bool `json:"participation"`
	Employee      bool `json:"employee"`
}

// ChoiceOption is one selectable value of a choice attribute. Value is the
// coefficient bound to the formula's value when the option is selected.
type ChoiceOption struct {
	ID    id.ChoiceID `json:"id"`
	Label string      `json:"label"`
	Value float64     `json:"value"`
}

// Attribute is a configurable custom field, optionally carrying a price
// formula.
type Attribute struct {
	ID      id.AttributeID `json:"id"`
	Name    string         `json:"name"`
	Kind    Kind           `json:"kind"`
	Formula string         `json:"formula,omitempty"`
	Unit    formula.Unit   `json:"unit,omitempty"`
	Usage   Usage          `json:"usage"`
	Options []ChoiceOption `json:"options,omitempty"`
}

// HasFormula reports whether the attribute contributes to a price.
func (a *Attribute) HasFormula() bool {
	return strings.TrimSpace(a.Formula) != ""
}

// Option returns the choice option with the given ID.
func (a *Attribute) Option(optionID id.ChoiceID) (*ChoiceOption, bool) {
	for i := range a.Options {
		if a.Options[i].ID == optionID {
			return &a.Options[i], true
		}
	}
	return nil, false
}

// Compile parses the attribute's formula.
func (a *Attribute) Compile() (*formula.Formula, error) {
	f, err := formula.Parse(a.Formula, a.Unit)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	return f, nil
}

// Validate checks the attribute configuration.
func (a *Attribute) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
	if !a.HasFormula() {
		return nil
	}
	if a.Kind == KindText {
		return fmt.Errorf("%w: %q", ErrFormulaOnText, a.Name)
	}
	_, err := a.Compile()
	return err
}
