package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the ledger store (PostgreSQL).
var Migrations = migrate.NewGroup("ledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_ledger_payment_events",
			Version: "20260701000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_payment_events (
    seq            BIGSERIAL UNIQUE,
    id             TEXT PRIMARY KEY,
    participant_id TEXT NOT NULL,
    kind           TEXT NOT NULL,
    value          BIGINT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    created_by     TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_payment_events_participant ON ledger_payment_events (participant_id, created_at, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_payment_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "add_ledger_payment_events_kind_check",
			Version: "20260701000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
ALTER TABLE ledger_payment_events
    ADD CONSTRAINT chk_ledger_payment_events_kind
    CHECK (kind IN ('price_override', 'payment')) NOT VALID;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `ALTER TABLE ledger_payment_events DROP CONSTRAINT IF EXISTS chk_ledger_payment_events_kind`)
				return err
			},
		},
	)
}
