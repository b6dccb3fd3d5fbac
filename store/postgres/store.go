package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	ledgerstore "github.com/campreg/ledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("ledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("ledger/postgres: migration failed: %w", err)
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

// AppendEvents inserts the batch with a single multi-row INSERT, which
// PostgreSQL commits atomically. Rows receive seq values in VALUES order.
func (s *Store) AppendEvents(ctx context.Context, events []*payment.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]eventModel, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		models[i] = *toEventModel(e)
	}
	if _, err := s.pg.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("ledger/postgres: append events: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, participantIDs []id.ParticipantID) (payment.History, error) {
	if len(participantIDs) == 0 {
		return payment.History{}, nil
	}
	keys := make([]string, len(participantIDs))
	for i, pid := range participantIDs {
		keys[i] = pid.String()
	}

	var models []eventModel
	err := s.pg.NewSelect(&models).
		Where("participant_id = ANY($1)", keys).
		OrderExpr("created_at ASC, seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: list events: %w", err)
	}

	result := make(payment.History, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}
