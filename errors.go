package ledger

import (
	"errors"
	"fmt"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/payment"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrAlreadyExists = errors.New("ledger: already exists")
	ErrInvalidInput  = errors.New("ledger: invalid input")

	// Action errors
	ErrInvalidAction   = errors.New("ledger: invalid action")
	ErrMissingActor    = errors.New("ledger: acting user is required")
	ErrNoParticipants  = errors.New("ledger: no participants given")
	ErrNotAParticipant = errors.New("ledger: subject has no payment ledger")

	// Price errors
	ErrCalculationImpossible = formula.ErrCalculationImpossible
	ErrNoPriceSet            = errors.New("ledger: no price set")

	// Ledger state errors
	ErrInvalidLedgerState = payment.ErrInvalidLedgerState

	// Store errors
	ErrStoreClosed     = errors.New("ledger: store is closed")
	ErrMigrationFailed = errors.New("ledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "ledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("ledger: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// IsCalculationImpossible returns true if a price could not be computed
// because a formula variable has no value.
func IsCalculationImpossible(err error) bool {
	return errors.Is(err, ErrCalculationImpossible)
}

// AsCalculationImpossible extracts the unresolved variable details.
func AsCalculationImpossible(err error) (*formula.CalculationImpossibleError, bool) {
	var ci *formula.CalculationImpossibleError
	if errors.As(err, &ci) {
		return ci, true
	}
	return nil, false
}

// IsInvalidLedgerState returns true if a stored event has an ambiguous or
// missing kind. Such errors must never be ignored.
func IsInvalidLedgerState(err error) bool {
	return errors.Is(err, ErrInvalidLedgerState)
}

// IsInvalidAction returns true if the error rejects an administrative
// request.
func IsInvalidAction(err error) bool {
	return errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrMissingActor) ||
		errors.Is(err, ErrNoParticipants) ||
		errors.Is(err, ErrNotAParticipant) ||
		errors.Is(err, ErrInvalidInput)
}
