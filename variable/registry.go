package variable

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/campreg/ledger/id"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved symbols are bound by the formula evaluator itself.
var reserved = map[string]bool{
	"value": true, "true": true, "false": true, "nil": true,
	"and": true, "or": true, "not": true, "in": true, "let": true,
}

// Registry is an in-memory Catalog.
type Registry struct {
	mu        sync.RWMutex
	bySymbol  map[string]*Variable
	byID      map[string]*Variable
	overrides map[overrideKey]float64
}

type overrideKey struct {
	event    string
	variable string
}

var _ Catalog = (*Registry)(nil)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol:  make(map[string]*Variable),
		byID:      make(map[string]*Variable),
		overrides: make(map[overrideKey]float64),
	}
}

// Define registers a variable. A nil ID is replaced by a fresh one.
func (r *Registry) Define(v *Variable) error {
	if !symbolPattern.MatchString(v.Symbol) || reserved[v.Symbol] {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, v.Symbol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySymbol[v.Symbol]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSymbol, v.Symbol)
	}
	if v.ID.IsNil() {
		v.ID = id.NewVariableID()
	}
	r.bySymbol[v.Symbol] = v
	r.byID[v.ID.String()] = v
	return nil
}

// SetOverride sets the value of a variable for one event. Setting it again
// replaces the previous value, so there is at most one override per
// (event, variable).
func (r *Registry) SetOverride(val Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[val.VariableID.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, val.VariableID)
	}
	r.overrides[overrideKey{val.EventID.String(), val.VariableID.String()}] = val.Value
	return nil
}

// RemoveOverride drops the event override, falling back to the default.
func (r *Registry) RemoveOverride(eventID id.EventID, variableID id.VariableID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, overrideKey{eventID.String(), variableID.String()})
}

// Lookup implements Catalog.
func (r *Registry) Lookup(symbol string) (*Variable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.bySymbol[symbol]
	return v, ok
}

// Override implements Catalog.
func (r *Registry) Override(eventID id.EventID, variableID id.VariableID) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.overrides[overrideKey{eventID.String(), variableID.String()}]
	return v, ok
}

// Variables returns all defined variables ordered by symbol.
func (r *Registry) Variables() []*Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Variable, 0, len(r.bySymbol))
	for _, v := range r.bySymbol {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}
