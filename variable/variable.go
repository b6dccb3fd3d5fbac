// Package variable holds event-specific formula variables and resolves their
// effective value for a given event.
//
// Resolution order is fixed: the event's override value, then the
// variable's global default, then unresolved. An unresolved variable is never
// treated as zero.
package variable

import (
	"errors"

	"github.com/campreg/ledger/id"
)

var (
	ErrDuplicateSymbol = errors.New("variable: duplicate symbol")
	ErrUnknownVariable = errors.New("variable: unknown variable")
	ErrInvalidSymbol   = errors.New("variable: invalid symbol")
)

// Variable is a named symbol a formula may reference.
type Variable struct {
	ID          id.VariableID `json:"id"`
	Symbol      string        `json:"symbol"`
	Description string        `json:"description"`
	Default     *float64      `json:"default,omitempty"`
}

// HasDefault reports whether a global default value is configured.
func (v *Variable) HasDefault() bool { return v.Default != nil }

// Value is the override of one variable for one event.
type Value struct {
	EventID    id.EventID    `json:"event_id"`
	VariableID id.VariableID `json:"variable_id"`
	Value      float64       `json:"value"`
}

// Catalog supplies variable definitions and per-event overrides.
type Catalog interface {
	Lookup(symbol string) (*Variable, bool)
	Override(eventID id.EventID, variableID id.VariableID) (float64, bool)
}

// Resolver resolves the effective value of variables against a Catalog.
// It is stateless and safe for concurrent use when the Catalog is.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a Resolver backed by c.
func NewResolver(c Catalog) Resolver {
	return Resolver{catalog: c}
}

// Resolve returns the effective value of v for the event: the event override
// if one exists, else the global default. ok is false when neither exists.
func (r Resolver) Resolve(eventID id.EventID, v *Variable) (value float64, ok bool) {
	if v == nil {
		return 0, false
	}
	if r.catalog != nil {
		if val, found := r.catalog.Override(eventID, v.ID); found {
			return val, true
		}
	}
	if v.Default != nil {
		return *v.Default, true
	}
	return 0, false
}

// ResolveSymbol looks the symbol up and resolves it. The returned Variable is
// nil when no variable with that symbol is defined.
func (r Resolver) ResolveSymbol(eventID id.EventID, symbol string) (float64, *Variable, bool) {
	if r.catalog == nil {
		return 0, nil, false
	}
	v, found := r.catalog.Lookup(symbol)
	if !found {
		return 0, nil, false
	}
	val, ok := r.Resolve(eventID, v)
	return val, v, ok
}
