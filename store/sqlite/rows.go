package sqlite

import (
	"fmt"
	"time"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/types"
)

// eventRow is the column set of ledger_payment_events shared by the bun and
// grove backends. created_at holds UTC nanoseconds so ordering is exact.
type eventRow struct {
	ID            string
	ParticipantID string
	Kind          string
	Value         int64
	Description   string
	CreatedBy     string
	CreatedAt     int64
}

func toEventRow(e *payment.Event) (eventRow, error) {
	if err := e.Validate(); err != nil {
		return eventRow{}, err
	}
	return eventRow{
		ID:            e.ID.String(),
		ParticipantID: e.ParticipantID.String(),
		Kind:          string(e.Kind),
		Value:         e.Value.Int64(),
		Description:   e.Description,
		CreatedBy:     e.CreatedBy.String(),
		CreatedAt:     e.CreatedAt.UTC().UnixNano(),
	}, nil
}

func (r eventRow) event() (*payment.Event, error) {
	kind, err := payment.ParseKind(r.Kind)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", r.ID, err)
	}
	evtID, err := id.ParsePaymentEventID(r.ID)
	if err != nil {
		return nil, err
	}
	participantID, err := id.ParseParticipantID(r.ParticipantID)
	if err != nil {
		return nil, err
	}
	createdBy, err := id.ParseUserID(r.CreatedBy)
	if err != nil {
		return nil, err
	}

	return &payment.Event{
		ID:            evtID,
		ParticipantID: participantID,
		Kind:          kind,
		Value:         types.Cents(r.Value),
		Description:   r.Description,
		CreatedBy:     createdBy,
		CreatedAt:     time.Unix(0, r.CreatedAt).UTC(),
	}, nil
}
