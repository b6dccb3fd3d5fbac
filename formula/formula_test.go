package formula_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/types"
	"github.com/campreg/ledger/variable"
)

func ptr(f float64) *float64 { return &f }

type fixture struct {
	reg       *variable.Registry
	resolver  variable.Resolver
	eventE    id.EventID
	eventF    id.EventID
	nights    *variable.Variable
	transport *variable.Variable
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		reg:       variable.NewRegistry(),
		eventE:    id.NewEventID(),
		eventF:    id.NewEventID(),
		nights:    &variable.Variable{Symbol: "nights", Default: ptr(3)},
		transport: &variable.Variable{Symbol: "transportCost", Description: "bus ticket per person"},
	}
	for _, v := range []*variable.Variable{fx.nights, fx.transport} {
		if err := fx.reg.Define(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := fx.reg.SetOverride(variable.Value{EventID: fx.eventE, VariableID: fx.nights.ID, Value: 5}); err != nil {
		t.Fatal(err)
	}
	fx.resolver = variable.NewResolver(fx.reg)
	return fx
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		symbols []string
		value   bool
		err     error
	}{
		{"constant", "5000", nil, false, nil},
		{"variables in order", "transportCost + 10*nights + nights", []string{"transportCost", "nights"}, false, nil},
		{"value is reserved", "value * 1500", nil, true, nil},
		{"builtin call", "max(value, nights) * 100", []string{"nights"}, true, nil},
		{"let binding", "let base = 5000; base + nights", []string{"nights"}, false, nil},
		{"empty", "   ", nil, false, formula.ErrEmptyFormula},
		{"syntax", "5000 +", nil, false, formula.ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := formula.Parse(tt.src, "")
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := f.Symbols(); !reflect.DeepEqual(got, tt.symbols) && !(len(got) == 0 && len(tt.symbols) == 0) {
				t.Errorf("Symbols: got %v, want %v", got, tt.symbols)
			}
			if f.UsesValue() != tt.value {
				t.Errorf("UsesValue: got %v, want %v", f.UsesValue(), tt.value)
			}
			if f.Unit() != formula.UnitCents {
				t.Errorf("default unit: got %q", f.Unit())
			}
		})
	}
}

func TestParseUnknownUnit(t *testing.T) {
	if _, err := formula.Parse("1", "euro"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

func TestEvaluate(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name  string
		src   string
		unit  formula.Unit
		event id.EventID
		value float64
		want  types.Cents
	}{
		{"override applies", "5000 + 20*nights", formula.UnitCents, fx.eventE, 1, 5100},
		{"default applies", "5000 + 20*nights", formula.UnitCents, fx.eventF, 1, 5060},
		{"value selection", "value * 1500", formula.UnitCents, fx.eventF, 2, 3000},
		{"major units", "12.5 * nights", formula.UnitMajor, fx.eventE, 0, 6250},
		{"major rounds once at the end", "10 / 3", formula.UnitMajor, fx.eventE, 0, 333},
		{"fractional cents round half away from zero", "value / 2", formula.UnitCents, fx.eventE, 5, 3},
		{"negative rounding", "-value / 2", formula.UnitCents, fx.eventE, 5, -3},
		{"conditional", "value > 0 ? 1000 : 0", formula.UnitCents, fx.eventE, 1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := formula.MustParse(tt.src, tt.unit)
			got, err := formula.Evaluate(f, formula.Input{EventID: tt.event, Value: tt.value, Resolver: fx.resolver})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvaluateCalculationImpossible(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name    string
		src     string
		symbol  string
		defined bool
	}{
		{"no override no default", "transportCost + 500", "transportCost", true},
		{"first unresolved wins", "undefinedThing + transportCost", "undefinedThing", false},
		{"unused branch still required", "value > 0 ? 100 : transportCost", "transportCost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := formula.MustParse(tt.src, "")
			got, err := formula.Evaluate(f, formula.Input{EventID: fx.eventF, Value: 1, Resolver: fx.resolver})
			if got != 0 {
				t.Errorf("expected no partial number, got %d", got)
			}
			if !errors.Is(err, formula.ErrCalculationImpossible) {
				t.Fatalf("expected ErrCalculationImpossible, got %v", err)
			}
			var ci *formula.CalculationImpossibleError
			if !errors.As(err, &ci) {
				t.Fatalf("expected *CalculationImpossibleError, got %T", err)
			}
			if ci.Symbol != tt.symbol || ci.Defined() != tt.defined {
				t.Errorf("got symbol %q defined %v", ci.Symbol, ci.Defined())
			}
			if ci.EventID != fx.eventF {
				t.Errorf("event: got %s, want %s", ci.EventID, fx.eventF)
			}
			if tt.defined && ci.Description != fx.transport.Description {
				t.Errorf("description: got %q", ci.Description)
			}
		})
	}
}

func TestEvaluateInvalidResults(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name  string
		src   string
		unit  formula.Unit
		value float64
		err   error
	}{
		{"boolean", "value > 1", "", 1, formula.ErrNonNumericResult},
		{"string", `"free"`, "", 1, formula.ErrNonNumericResult},
		{"division by zero", "nights / (value - 1)", "", 1, formula.ErrInvalidResult},
		{"beyond cent range", "value * 1e20", "", 1, formula.ErrInvalidResult},
		{"major beyond cent range", "value * 1e17", formula.UnitMajor, 1, formula.ErrInvalidResult},
		{"integer overflow", "value * 100000000000", "", 1e11, formula.ErrInvalidResult},
		{"negative integer overflow", "-value * value * nights", "", 3e9, formula.ErrInvalidResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := formula.MustParse(tt.src, tt.unit)
			got, err := formula.Evaluate(f, formula.Input{EventID: fx.eventE, Value: tt.value, Resolver: fx.resolver})
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got (%d, %v)", tt.err, got, err)
			}
		})
	}
}

func TestEvaluateLargeButExact(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		src   string
		value float64
		want  types.Cents
	}{
		{"value * 1000000", 1e12, 1e18},
		{"value % 7", 100, 2},
		{"value * 2", 4e18, 8e18},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := formula.Evaluate(formula.MustParse(tt.src, ""), formula.Input{EventID: fx.eventE, Value: tt.value, Resolver: fx.resolver})
			if err != nil || got != tt.want {
				t.Errorf("got (%d, %v), want %d", got, err, tt.want)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	fx := newFixture(t)
	f := formula.MustParse("5000 + 20*nights + value*250", "")
	in := formula.Input{EventID: fx.eventE, Value: 3, Resolver: fx.resolver}

	first, err := formula.Evaluate(f, in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := formula.Evaluate(f, in)
		if err != nil || got != first {
			t.Fatalf("evaluation %d: got (%d, %v), want %d", i, got, err, first)
		}
	}
}
