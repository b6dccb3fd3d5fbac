package extension

import (
	"time"

	"github.com/xraph/grove"

	ledger "github.com/campreg/ledger"
	"github.com/campreg/ledger/plugin"
	"github.com/campreg/ledger/store"
	"github.com/campreg/ledger/store/postgres"
	"github.com/campreg/ledger/store/sqlite"
	"github.com/campreg/ledger/variable"
)

// Option configures the Ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveSQLite stores events in a SQLite database opened through Grove.
func WithGroveSQLite(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = sqlite.NewGrove(db)
	}
}

// WithGrovePostgres stores events in a PostgreSQL database opened through
// Grove.
func WithGrovePostgres(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = postgres.New(db)
	}
}

// WithCatalog sets the variable catalog formulas resolve against.
func WithCatalog(c variable.Catalog) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithCatalog(c))
	}
}

// WithLedgerOption passes a ledger.Option through to the underlying engine.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithCurrency sets the display currency code.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithVariableConfigURL sets the link shown for unresolved variables.
func WithVariableConfigURL(url string) Option {
	return func(e *Extension) { e.config.VariableConfigURL = url }
}

// WithPluginTimeout bounds a single plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithSQLiteDSN opens the SQLite store at dsn when no store is given.
func WithSQLiteDSN(dsn string) Option {
	return func(e *Extension) { e.config.SQLiteDSN = dsn }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
