package store

import (
	"context"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
)

// Store is the storage interface for the payment ledger.
//
// Events are append-only. Implementations never update or delete a stored
// event.
type Store interface {
	// AppendEvents persists one administrative action atomically: either
	// all events are stored or none are.
	AppendEvents(ctx context.Context, events []*payment.Event) error

	// ListEvents returns the events of the given participants ordered by
	// CreatedAt, with insertion order breaking ties. A stored kind that
	// cannot be decoded yields payment.ErrInvalidLedgerState.
	ListEvents(ctx context.Context, participantIDs []id.ParticipantID) (payment.History, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
