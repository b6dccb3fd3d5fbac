package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/types"
)

// ==================== Payment event models ====================

// batchModel stores one administrative action. A single-document insert is
// atomic, so the whole batch persists or none of it does.
type batchModel struct {
	grove.BaseModel `grove:"table:ledger_payment_batches"`

	ID             string       `grove:"id,pk"           bson:"_id"`
	ParticipantIDs []string     `grove:"participant_ids" bson:"participant_ids"`
	Events         []eventModel `grove:"events"          bson:"events"`
	CreatedAt      time.Time    `grove:"created_at"      bson:"created_at"`
}

type eventModel struct {
	ID            string    `bson:"id"`
	ParticipantID string    `bson:"participant_id"`
	Kind          string    `bson:"kind"`
	Value         int64     `bson:"value"`
	Description   string    `bson:"description"`
	CreatedBy     string    `bson:"created_by"`
	CreatedAt     time.Time `bson:"created_at"`
}

// unwoundEvent is one element of the list pipeline output.
type unwoundEvent struct {
	Event eventModel `bson:"events"`
}

func toBatchModel(events []*payment.Event) *batchModel {
	m := &batchModel{
		ID:        events[0].ID.String(),
		Events:    make([]eventModel, len(events)),
		CreatedAt: events[0].CreatedAt.UTC(),
	}
	seen := make(map[string]bool, len(events))
	for i, e := range events {
		m.Events[i] = eventModel{
			ID:            e.ID.String(),
			ParticipantID: e.ParticipantID.String(),
			Kind:          string(e.Kind),
			Value:         e.Value.Int64(),
			Description:   e.Description,
			CreatedBy:     e.CreatedBy.String(),
			CreatedAt:     e.CreatedAt.UTC(),
		}
		if pid := e.ParticipantID.String(); !seen[pid] {
			seen[pid] = true
			m.ParticipantIDs = append(m.ParticipantIDs, pid)
		}
	}
	return m
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
		CreatedAt:     m.CreatedAt.UTC(),
	}, nil
}
