// Package sqlite implements the ledger store on SQLite, through bun (Store)
// or through Grove's SQLite driver (GroveStore).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	ledgerstore "github.com/campreg/ledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via bun.
type Store struct {
	db *bun.DB
}

// New creates a store on an existing bun database.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Open opens the SQLite database at dsn, e.g. "file:ledger.db" or
// ":memory:".
func Open(dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: open %q: %w", dsn, err)
	}
	// SQLite allows one writer, and every :memory: connection is its own
	// database.
	sqldb.SetMaxOpenConns(1)
	return New(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

// DB returns the underlying bun database for direct access.
func (s *Store) DB() *bun.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range migrations {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("%s: %w", m.name, err)
				}
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("ledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger Store ====================

type eventModel struct {
	bun.BaseModel `bun:"table:ledger_payment_events"`

	ID            string `bun:"id,notnull"`
	ParticipantID string `bun:"participant_id,notnull"`
	Kind          string `bun:"kind,notnull"`
	Value         int64  `bun:"value,notnull"`
	Description   string `bun:"description,notnull"`
	CreatedBy     string `bun:"created_by,notnull"`
	CreatedAt     int64  `bun:"created_at,notnull"`
}

func newEventModel(r eventRow) eventModel {
	return eventModel{
		ID: r.ID, ParticipantID: r.ParticipantID, Kind: r.Kind, Value: r.Value,
		Description: r.Description, CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt,
	}
}

func (m *eventModel) row() eventRow {
	return eventRow{
		ID: m.ID, ParticipantID: m.ParticipantID, Kind: m.Kind, Value: m.Value,
		Description: m.Description, CreatedBy: m.CreatedBy, CreatedAt: m.CreatedAt,
	}
}

func (s *Store) AppendEvents(ctx context.Context, events []*payment.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]eventModel, len(events))
	for i, e := range events {
		r, err := toEventRow(e)
		if err != nil {
			return err
		}
		models[i] = newEventModel(r)
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("ledger/sqlite: append events: %w", err)
		}
		return nil
	})
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
	if err := s.db.NewSelect().
		Model(&models).
		Where("participant_id IN (?)", bun.In(keys)).
		OrderExpr("created_at ASC, seq ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/sqlite: list events: %w", err)
	}

	result := make(payment.History, len(models))
	for i := range models {
		e, err := models[i].row().event()
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}
