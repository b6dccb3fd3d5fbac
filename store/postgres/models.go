package postgres

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/types"
)

// ==================== Payment event models ====================

// eventModel maps ledger_payment_events. The seq column is assigned by the
// database and only used for ordering.
type eventModel struct {
	grove.BaseModel `grove:"table:ledger_payment_events"`

	ID            string    `grove:"id,pk"`
	ParticipantID string    `grove:"participant_id"`
	Kind          string    `grove:"kind"`
	Value         int64     `grove:"value"`
	Description   string    `grove:"description"`
	CreatedBy     string    `grove:"created_by"`
	CreatedAt     time.Time `grove:"created_at"`
}

func toEventModel(e *payment.Event) *eventModel {
	return &eventModel{
		ID:            e.ID.String(),
		ParticipantID: e.ParticipantID.String(),
		Kind:          string(e.Kind),
		Value:         e.Value.Int64(),
		Description:   e.Description,
		CreatedBy:     e.CreatedBy.String(),
		CreatedAt:     e.CreatedAt.UTC(),
	}
}

func fromEventModel(m *eventModel) (*payment.Event, error) {
	kind, err := payment.ParseKind(m.Kind)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", m.ID, err)
	}
	evtID, err := id.ParsePaymentEventID(m.ID)
	if err != nil {
		return nil, err
	}
	participantID, err := id.ParseParticipantID(m.ParticipantID)
	if err != nil {
		return nil, err
	}
	createdBy, err := id.ParseUserID(m.CreatedBy)
	if err != nil {
		return nil, err
	}

	return &payment.Event{
		ID:            evtID,
		ParticipantID: participantID,
		Kind:          kind,
		Value:         types.Cents(m.Value),
		Description:   m.Description,
		CreatedBy:     createdBy,
		CreatedAt:     m.CreatedAt,
	}, nil
}
