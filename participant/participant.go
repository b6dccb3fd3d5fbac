// Package participant models the priceable entities of an event:
// participants, participations (one registration grouping several
// participants) and employees.
package participant

import (
	"fmt"

	"github.com/campreg/ledger/attribute"
	"github.com/campreg/ledger/id"
)

// Kind discriminates the priceable entity types.
type Kind string

const (
	KindParticipant   Kind = "participant"
	KindParticipation Kind = "participation"
	KindEmployee      Kind = "employee"
)

// Ref is a typed reference to a priceable entity.
type Ref struct {
	Kind Kind  `json:"kind"`
	ID   id.ID `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.ID)
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return r.Kind == "" && r.ID.IsNil() }

// Subject is anything the price calculator can price.
type Subject interface {
	Ref() Ref
	EventID() id.EventID
	Fields() []attribute.FieldValue
	// Inactive reports that no payment is expected. Inactive subjects
	// stay individually priceable but are left out of aggregates.
	Inactive() bool
}

// Applies reports whether the attribute may be filled out for kind.
func Applies(a *attribute.Attribute, kind Kind) bool {
	switch kind {
	case KindParticipant:
		return a.Usage.Participant
	case KindParticipation:
		return a.Usage.Participation
	case KindEmployee:
		return a.Usage.Employee
	}
	return false
}

// ──────────────────────────────────────────────────
// Participant
// ──────────────────────────────────────────────────

// Participant is one person registered for an event. Only participants
// carry a payment ledger.
type Participant struct {
	ID           id.ParticipantID       `json:"id"`
	Event        id.EventID             `json:"event_id"`
	Name         string                 `json:"name"`
	CustomFields []attribute.FieldValue `json:"fields,omitempty"`
	Withdrawn    bool                   `json:"withdrawn"`
	Rejected     bool                   `json:"rejected"`
	Deleted      bool                   `json:"deleted"`

	Participation *Participation `json:"-"`
}

var _ Subject = (*Participant)(nil)

func (p *Participant) Ref() Ref                       { return Ref{Kind: KindParticipant, ID: p.ID} }
func (p *Participant) EventID() id.EventID            { return p.Event }
func (p *Participant) Fields() []attribute.FieldValue { return p.CustomFields }

// Inactive is true for withdrawn, rejected and deleted participants.
func (p *Participant) Inactive() bool {
	return p.Withdrawn || p.Rejected || p.Deleted
}

// ──────────────────────────────────────────────────
// Participation
// ──────────────────────────────────────────────────

// Participation is one registration, owning one or more participants.
type Participation struct {
	ID           id.ParticipationID     `json:"id"`
	Event        id.EventID             `json:"event_id"`
	CustomFields []attribute.FieldValue `json:"fields,omitempty"`
	Deleted      bool                   `json:"deleted"`
	Participants []*Participant         `json:"participants"`
}

var _ Subject = (*Participation)(nil)

func (p *Participation) Ref() Ref                       { return Ref{Kind: KindParticipation, ID: p.ID} }
func (p *Participation) EventID() id.EventID            { return p.Event }
func (p *Participation) Fields() []attribute.FieldValue { return p.CustomFields }

// Add attaches participants and sets their back reference and event.
func (p *Participation) Add(participants ...*Participant) {
	for _, part := range participants {
		part.Participation = p
		if part.Event.IsNil() {
			part.Event = p.Event
		}
		p.Participants = append(p.Participants, part)
	}
}

// Active returns the participants that are not inactive, in order.
func (p *Participation) Active() []*Participant {
	out := make([]*Participant, 0, len(p.Participants))
	for _, part := range p.Participants {
		if !part.Inactive() {
			out = append(out, part)
		}
	}
	return out
}

// ParticipantIDs returns the IDs of all participants, active or not.
func (p *Participation) ParticipantIDs() []id.ParticipantID {
	out := make([]id.ParticipantID, 0, len(p.Participants))
	for _, part := range p.Participants {
		out = append(out, part.ID)
	}
	return out
}

// Inactive is true when the participation is deleted or none of its
// participants is active.
func (p *Participation) Inactive() bool {
	return p.Deleted || len(p.Active()) == 0
}

// ──────────────────────────────────────────────────
// Employee
// ──────────────────────────────────────────────────

// Employee is staff of an event. Employees are priceable but have no
// payment ledger.
type Employee struct {
	ID           id.EmployeeID          `json:"id"`
	Event        id.EventID             `json:"event_id"`
	Name         string                 `json:"name"`
	CustomFields []attribute.FieldValue `json:"fields,omitempty"`
	Deleted      bool                   `json:"deleted"`
}

var _ Subject = (*Employee)(nil)

func (e *Employee) Ref() Ref                       { return Ref{Kind: KindEmployee, ID: e.ID} }
func (e *Employee) EventID() id.EventID            { return e.Event }
func (e *Employee) Fields() []attribute.FieldValue { return e.CustomFields }
func (e *Employee) Inactive() bool                 { return e.Deleted }
