package sqlite

import (
	"context"
	"fmt"

	"github.com/xraph/grove/migrate"
)

// migration is one idempotent schema step.
type migration struct {
	name       string
	version    string
	statements []string
	down       string
}

// migrations run in order. Store applies them inside one transaction;
// GroveStore applies them through Migrations.
var migrations = []migration{
	{
		name:    "create_ledger_payment_events",
		version: "20260701000001",
		statements: []string{`
CREATE TABLE IF NOT EXISTS ledger_payment_events (
    seq            INTEGER PRIMARY KEY AUTOINCREMENT,
    id             TEXT NOT NULL UNIQUE,
    participant_id TEXT NOT NULL,
    kind           TEXT NOT NULL,
    value          INTEGER NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    created_by     TEXT NOT NULL,
    created_at     INTEGER NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_ledger_payment_events_participant
    ON ledger_payment_events (participant_id, created_at, seq)`,
		},
		down: `DROP TABLE IF EXISTS ledger_payment_events`,
	},
}

// Migrations is the grove migration group for the ledger store (SQLite).
var Migrations = migrate.NewGroup("ledger")

func init() {
	for _, m := range migrations {
		Migrations.MustRegister(groveMigration(m))
	}
}

func groveMigration(m migration) *migrate.Migration {
	return &migrate.Migration{
		Name:    m.name,
		Version: m.version,
		Up: func(ctx context.Context, exec migrate.Executor) error {
			for _, stmt := range m.statements {
				if _, err := exec.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("%s: %w", m.name, err)
				}
			}
			return nil
		},
		Down: func(ctx context.Context, exec migrate.Executor) error {
			_, err := exec.Exec(ctx, m.down)
			return err
		},
	}
}
