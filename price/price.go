// Package price assembles itemized price tags from custom-field formulas and
// manual overrides.
//
// Tags are recomputed on every call. A Calculator holds no per-subject state
// and is safe for concurrent use.
package price

import (
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/types"
)

// SummandKind discriminates the summand variants.
type SummandKind string

const (
	// SummandAttribute comes from an attribute formula.
	SummandAttribute SummandKind = "attribute"
	// SummandOverride is a manual price from the payment ledger.
	SummandOverride SummandKind = "override"
)

// Summand is one itemized contribution to a price.
type Summand struct {
	Kind  SummandKind `json:"kind"`
	Value types.Cents `json:"value"`
	// AttributeID is set only for SummandAttribute.
	AttributeID id.AttributeID  `json:"attribute_id,omitempty"`
	Cause       participant.Ref `json:"cause"`
	Label       string          `json:"label"`
}

// Tag is the itemized price of one subject.
type Tag struct {
	Subject  participant.Ref `json:"subject"`
	Summands []Summand       `json:"summands"`
}

// Total returns the sum of all summands.
func (t *Tag) Total() types.Cents {
	var total types.Cents
	for _, s := range t.Summands {
		total += s.Value
	}
	return total
}

// Empty reports whether the tag has no summands.
func (t *Tag) Empty() bool { return len(t.Summands) == 0 }

// Overridden reports whether any summand is a manual override.
func (t *Tag) Overridden() bool {
	for _, s := range t.Summands {
		if s.Kind == SummandOverride {
			return true
		}
	}
	return false
}

// ByCause returns the summands caused by ref.
func (t *Tag) ByCause(ref participant.Ref) []Summand {
	var out []Summand
	for _, s := range t.Summands {
		if s.Cause == ref {
			out = append(out, s)
		}
	}
	return out
}

// Overrides looks up the latest manual price of a participant.
type Overrides func(participantID id.ParticipantID) (types.Cents, bool)

// OverrideMap adapts a map keyed by participant ID string.
func OverrideMap(m map[string]types.Cents) Overrides {
	return func(participantID id.ParticipantID) (types.Cents, bool) {
		c, ok := m[participantID.String()]
		return c, ok
	}
}
