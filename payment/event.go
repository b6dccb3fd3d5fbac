// Package payment defines the append-only payment ledger: its events, the
// status derived from them, and cross-entity summaries.
package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/types"
)

// ErrInvalidLedgerState reports an event whose kind is missing or
// ambiguous. It is never recoverable within the operation that hits it.
var ErrInvalidLedgerState = errors.New("payment: invalid ledger state")

// Kind is the type of a ledger event.
type Kind string

const (
	// KindPriceOverride sets the participant's price manually.
	KindPriceOverride Kind = "price_override"
	// KindPayment records money received (negative) or refunded (positive).
	KindPayment Kind = "payment"
)

// Valid reports whether k is one of the two event kinds.
func (k Kind) Valid() bool {
	return k == KindPriceOverride || k == KindPayment
}

// ParseKind decodes a stored kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown event kind %q", ErrInvalidLedgerState, s)
	}
	return k, nil
}

// KindFromFlags converts the legacy two-flag encoding. Exactly one flag must
// be set.
func KindFromFlags(isPriceSet, isPayment bool) (Kind, error) {
	switch {
	case isPriceSet && !isPayment:
		return KindPriceOverride, nil
	case isPayment && !isPriceSet:
		return KindPayment, nil
	case isPriceSet:
		return "", fmt.Errorf("%w: event is both price override and payment", ErrInvalidLedgerState)
	default:
		return "", fmt.Errorf("%w: event is neither price override nor payment", ErrInvalidLedgerState)
	}
}

// Event is one immutable ledger entry.
type Event struct {
	ID            id.PaymentEventID `json:"id"`
	ParticipantID id.ParticipantID  `json:"participant_id"`
	Kind          Kind              `json:"kind"`
	Value         types.Cents       `json:"value"`
	Description   string            `json:"description"`
	CreatedBy     id.UserID         `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Validate checks an event before it is appended.
func (e *Event) Validate() error {
	if e.ID.IsNil() {
		return errors.New("payment: event id is required")
	}
	if e.ParticipantID.IsNil() {
		return errors.New("payment: participant id is required")
	}
	if e.CreatedBy.IsNil() {
		return errors.New("payment: created_by is required")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidLedgerState, e.Kind)
	}
	return nil
}

// History is a list of events ordered by creation, oldest first, with
// insertion order breaking ties.
type History []*Event

// LatestOverride returns the most recent price override, or nil.
func (h History) LatestOverride() *Event {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Kind == KindPriceOverride {
			return h[i]
		}
	}
	return nil
}

// PaidSum sums all payment values. It is negative when money was received.
func (h History) PaidSum() types.Cents {
	var sum types.Cents
	for _, e := range h {
		if e.Kind == KindPayment {
			sum += e.Value
		}
	}
	return sum
}

// ForParticipant returns the events of one participant, keeping order.
func (h History) ForParticipant(participantID id.ParticipantID) History {
	var out History
	for _, e := range h {
		if e.ParticipantID == participantID {
			out = append(out, e)
		}
	}
	return out
}

// Overrides returns the latest override value per participant ID string.
func (h History) Overrides() map[string]types.Cents {
	out := make(map[string]types.Cents)
	for _, e := range h {
		if e.Kind == KindPriceOverride {
			out[e.ParticipantID.String()] = e.Value
		}
	}
	return out
}

// Check returns ErrInvalidLedgerState for the first event of unknown kind.
func (h History) Check() error {
	for _, e := range h {
		if !e.Kind.Valid() {
			return fmt.Errorf("%w: event %s has kind %q", ErrInvalidLedgerState, e.ID, e.Kind)
		}
	}
	return nil
}
