package price

import (
	"fmt"
	"sync"

	"github.com/campreg/ledger/attribute"
	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/types"
	"github.com/campreg/ledger/variable"
)

// Calculator builds price tags.
type Calculator struct {
	resolver variable.Resolver

	mu       sync.RWMutex
	compiled map[compileKey]*formula.Formula
}

type compileKey struct {
	src  string
	unit formula.Unit
}

// NewCalculator creates a Calculator resolving variables from catalog.
func NewCalculator(catalog variable.Catalog) *Calculator {
	return &Calculator{
		resolver: variable.NewResolver(catalog),
		compiled: make(map[compileKey]*formula.Formula),
	}
}

// Tag builds the price tag of s.
//
// A participant with an override gets a single override summand and no
// formula is evaluated. A participation gets its own summands followed by
// the tags of its active participants. Any failure, including
// formula.ErrCalculationImpossible, aborts the whole tag.
func (c *Calculator) Tag(s participant.Subject, overrides Overrides) (*Tag, error) {
	tag := &Tag{Subject: s.Ref()}

	switch subj := s.(type) {
	case *participant.Participant:
		if err := c.participant(tag, subj, overrides); err != nil {
			return nil, err
		}
	case *participant.Participation:
		if err := c.fields(tag, subj); err != nil {
			return nil, err
		}
		for _, p := range subj.Active() {
			if err := c.participant(tag, p, overrides); err != nil {
				return nil, err
			}
		}
	default:
		if err := c.fields(tag, s); err != nil {
			return nil, err
		}
	}
	return tag, nil
}

func (c *Calculator) participant(tag *Tag, p *participant.Participant, overrides Overrides) error {
	if overrides != nil {
		if cents, ok := overrides(p.ID); ok {
			tag.Summands = append(tag.Summands, Summand{
				Kind:  SummandOverride,
				Value: cents,
				Cause: p.Ref(),
				Label: "price override",
			})
			return nil
		}
	}
	return c.fields(tag, p)
}

// fields appends one summand per priced field of s in field order.
func (c *Calculator) fields(tag *Tag, s participant.Subject) error {
	ref := s.Ref()
	for _, fv := range s.Fields() {
		a := fv.Attribute
		if a == nil || !a.HasFormula() || !participant.Applies(a, ref.Kind) || !fv.HasSelection() {
			continue
		}

		cents, err := c.evaluate(s, fv)
		if err != nil {
			return fmt.Errorf("price: %s, attribute %q: %w", ref, a.Name, err)
		}
		tag.Summands = append(tag.Summands, Summand{
			Kind:        SummandAttribute,
			Value:       cents,
			AttributeID: a.ID,
			Cause:       ref,
			Label:       a.Name,
		})
	}
	return nil
}

func (c *Calculator) evaluate(s participant.Subject, fv attribute.FieldValue) (types.Cents, error) {
	f, err := c.compile(fv.Attribute)
	if err != nil {
		return 0, err
	}
	value, err := fv.Number()
	if err != nil {
		return 0, err
	}
	return formula.Evaluate(f, formula.Input{
		EventID:  s.EventID(),
		Value:    value,
		Resolver: c.resolver,
	})
}

func (c *Calculator) compile(a *attribute.Attribute) (*formula.Formula, error) {
	key := compileKey{src: a.Formula, unit: a.Unit}

	c.mu.RLock()
	f, ok := c.compiled[key]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	f, err := a.Compile()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[key] = f
	c.mu.Unlock()
	return f, nil
}
