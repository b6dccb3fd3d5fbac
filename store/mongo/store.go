package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	ledgerstore "github.com/campreg/ledger/store"
)

// Collection name constants.
const (
	colPaymentBatches = "ledger_payment_batches"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger Store ====================

func (s *Store) AppendEvents(ctx context.Context, events []*payment.Event) error {
	if len(events) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		// The unique index does not apply within a single document.
		if seen[e.ID.String()] {
			return fmt.Errorf("ledger/mongo: duplicate event %s in batch", e.ID)
		}
		seen[e.ID.String()] = true
	}
	m := toBatchModel(events)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("ledger/mongo: append events: %w", err)
	}
	return nil
}

// ListEvents unwinds the matching batches. Events are ordered by their
// creation time, then by batch and position within the batch.
func (s *Store) ListEvents(ctx context.Context, participantIDs []id.ParticipantID) (payment.History, error) {
	if len(participantIDs) == 0 {
		return payment.History{}, nil
	}
	keys := make(bson.A, len(participantIDs))
	for i, pid := range participantIDs {
		keys[i] = pid.String()
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"participant_ids": bson.M{"$in": keys}}},
		bson.M{"$unwind": bson.M{"path": "$events", "includeArrayIndex": "pos"}},
		bson.M{"$match": bson.M{"events.participant_id": bson.M{"$in": keys}}},
		bson.M{"$sort": bson.D{
			{Key: "events.created_at", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "_id", Value: 1},
			{Key: "pos", Value: 1},
		}},
		bson.M{"$project": bson.M{"_id": 0, "events": 1}},
	}

	cursor, err := s.mdb.Collection(colPaymentBatches).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list events: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []unwoundEvent
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list events decode: %w", err)
	}

	result := make(payment.History, len(rows))
	for i := range rows {
		e, err := fromEventModel(&rows[i].Event)
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPaymentBatches: {
			{Keys: bson.D{{Key: "participant_ids", Value: 1}, {Key: "created_at", Value: 1}}},
			{
				Keys:    bson.D{{Key: "events.id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
