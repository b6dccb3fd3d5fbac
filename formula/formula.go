// Package formula compiles and evaluates price formulas.
//
// A formula is an expression in the expr language (github.com/expr-lang/expr).
// The identifier value is bound to the numeric selection of the custom field
// the formula belongs to; every other identifier is an event-specific
// variable symbol. All variables are resolved before evaluation, and an
// unresolved variable fails the evaluation with a CalculationImpossibleError
// instead of being treated as zero.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/shopspring/decimal"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/types"
	"github.com/campreg/ledger/variable"
)

// ValueSymbol is the identifier bound to the field's numeric selection.
const ValueSymbol = "value"

var (
	ErrEmptyFormula          = errors.New("formula: empty expression")
	ErrSyntax                = errors.New("formula: syntax error")
	ErrCalculationImpossible = errors.New("formula: calculation impossible")
	ErrNonNumericResult      = errors.New("formula: non-numeric result")
	ErrInvalidResult         = errors.New("formula: invalid result")
)

// Unit is the currency unit a formula's result is expressed in.
type Unit string

const (
	// UnitCents formulas produce cents. This is the default.
	UnitCents Unit = "cents"
	// UnitMajor formulas produce major units. The result is converted to
	// cents once, after evaluation.
	UnitMajor Unit = "major"
)

// Formula is a compiled expression.
type Formula struct {
	src     string
	unit    Unit
	program *vm.Program
	wide    *vm.Program // float-only twin of program; nil when it does not compile
	symbols []string
	value   bool
}

// Parse compiles src. An empty unit means UnitCents.
func Parse(src string, unit Unit) (*Formula, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmptyFormula
	}
	switch unit {
	case "":
		unit = UnitCents
	case UnitCents, UnitMajor:
	default:
		return nil, fmt.Errorf("formula: unknown unit %q", unit)
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	program, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	c := &collector{seen: make(map[string]bool), declared: make(map[string]bool)}
	ast.Walk(&tree.Node, c)

	f := &Formula{src: src, unit: unit, program: program}
	if wide, err := expr.Compile(src, expr.Patch(widen{})); err == nil {
		f.wide = wide
	}
	for _, sym := range c.order {
		if c.declared[sym] {
			continue
		}
		if sym == ValueSymbol {
			f.value = true
			continue
		}
		f.symbols = append(f.symbols, sym)
	}
	return f, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string, unit Unit) *Formula {
	f, err := Parse(src, unit)
	if err != nil {
		panic(err)
	}
	return f
}

// Source returns the expression text.
func (f *Formula) Source() string { return f.src }

// Unit returns the result unit.
func (f *Formula) Unit() Unit { return f.unit }

// Symbols returns the variable symbols referenced, in order of first
// appearance. The value identifier is not included.
func (f *Formula) Symbols() []string {
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// UsesValue reports whether the formula reads the field selection.
func (f *Formula) UsesValue() bool { return f.value }

// Input carries everything one evaluation needs.
type Input struct {
	EventID  id.EventID
	Value    float64
	Resolver variable.Resolver
}

// Evaluate runs f against in and returns the result in cents.
func Evaluate(f *Formula, in Input) (types.Cents, error) {
	env := make(map[string]any, len(f.symbols)+1)
	env[ValueSymbol] = number(in.Value)

	for _, sym := range f.symbols {
		val, v, ok := in.Resolver.ResolveSymbol(in.EventID, sym)
		if !ok {
			return 0, newImpossible(in.EventID, sym, v)
		}
		env[sym] = number(val)
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}

	result, err := toFloat(out)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResult, result)
	}
	if err := f.checkWrapped(env, result); err != nil {
		return 0, err
	}

	d := decimal.NewFromFloat(result)
	if f.unit == UnitMajor {
		d = d.Shift(2)
	}
	cents, err := types.FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	return cents, nil
}

// checkWrapped reruns the formula in floating point and fails when the
// integer result disagrees, which happens only on int64 overflow.
func (f *Formula) checkWrapped(env map[string]any, result float64) error {
	if f.wide == nil {
		return nil
	}
	wideEnv := make(map[string]any, len(env))
	for k, v := range env {
		if n, ok := v.(int); ok {
			wideEnv[k] = float64(n)
			continue
		}
		wideEnv[k] = v
	}
	out, err := expr.Run(f.wide, wideEnv)
	if err != nil {
		return nil
	}
	w, err := toFloat(out)
	if err != nil || math.IsNaN(w) {
		return nil
	}
	if math.IsInf(w, 0) || math.Abs(w-result) > 1e-9*math.Max(1, math.Abs(w)) {
		return fmt.Errorf("%w: integer overflow (exact result about %g)", ErrInvalidResult, w)
	}
	return nil
}

// widen turns integer literals into floats.
type widen struct{}

func (widen) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IntegerNode); ok {
		ast.Patch(node, &ast.FloatNode{Value: float64(n.Value)})
	}
}

// number keeps whole values integral so integer arithmetic applies.
func number(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func toFloat(out any) (float64, error) {
	switch n := out.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNonNumericResult, out)
	}
}

// collector records identifiers in order of appearance and the names
// introduced by let declarations.
type collector struct {
	order    []string
	seen     map[string]bool
	declared map[string]bool
}

func (c *collector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if !c.seen[n.Value] {
			c.seen[n.Value] = true
			c.order = append(c.order, n.Value)
		}
	case *ast.VariableDeclaratorNode:
		c.declared[n.Name] = true
	}
}
