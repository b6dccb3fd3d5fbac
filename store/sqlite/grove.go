package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	ledgerstore "github.com/campreg/ledger/store"
)

var _ ledgerstore.Store = (*GroveStore)(nil)

// GroveStore implements store.Store on a SQLite database opened through
// Grove. It shares the schema with Store, so either can open a file the
// other created.
type GroveStore struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// NewGrove creates a store on a Grove database using the SQLite driver.
func NewGrove(db *grove.DB) *GroveStore {
	return &GroveStore{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *GroveStore) DB() *grove.DB { return s.db }

// Migrate runs Migrations through the grove orchestrator.
func (s *GroveStore) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("ledger/sqlite: migration failed: %w", err)
	}
	return nil
}

func (s *GroveStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *GroveStore) Close() error {
	return s.db.Close()
}

type groveEventModel struct {
	grove.BaseModel `grove:"table:ledger_payment_events"`

	ID            string `grove:"id"`
	ParticipantID string `grove:"participant_id"`
	Kind          string `grove:"kind"`
	Value         int64  `grove:"value"`
	Description   string `grove:"description"`
	CreatedBy     string `grove:"created_by"`
	CreatedAt     int64  `grove:"created_at"`
}

func newGroveEventModel(r eventRow) groveEventModel {
	return groveEventModel{
		ID: r.ID, ParticipantID: r.ParticipantID, Kind: r.Kind, Value: r.Value,
		Description: r.Description, CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt,
	}
}

func (m *groveEventModel) row() eventRow {
	return eventRow{
		ID: m.ID, ParticipantID: m.ParticipantID, Kind: m.Kind, Value: m.Value,
		Description: m.Description, CreatedBy: m.CreatedBy, CreatedAt: m.CreatedAt,
	}
}

// AppendEvents inserts the batch as one multi-row INSERT, which SQLite
// applies atomically.
func (s *GroveStore) AppendEvents(ctx context.Context, events []*payment.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]groveEventModel, len(events))
	for i, e := range events {
		r, err := toEventRow(e)
		if err != nil {
			return err
		}
		models[i] = newGroveEventModel(r)
	}
	if _, err := s.sdb.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("ledger/sqlite: append events: %w", err)
	}
	return nil
}

func (s *GroveStore) ListEvents(ctx context.Context, participantIDs []id.ParticipantID) (payment.History, error) {
	if len(participantIDs) == 0 {
		return payment.History{}, nil
	}
	args := make([]any, len(participantIDs))
	for i, pid := range participantIDs {
		args[i] = pid.String()
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	var models []groveEventModel
	if err := s.sdb.NewSelect(&models).
		Where("participant_id IN ("+placeholders+")", args...).
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
