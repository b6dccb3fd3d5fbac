package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campreg/ledger/plugin"
	"github.com/campreg/ledger/price"
	"github.com/campreg/ledger/store"
	"github.com/campreg/ledger/suggestion"
	"github.com/campreg/ledger/types"
	"github.com/campreg/ledger/variable"
)

// DefaultCurrency is used for display when no currency is configured.
const DefaultCurrency = "eur"

// Ledger is the pricing and payment engine.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	catalog    variable.Catalog
	calculator *price.Calculator
	suggester  suggestion.Strategy
	clock      func() time.Time

	// Configuration
	currency          string
	variableConfigURL string
	skipMigrate       bool
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		catalog:   variable.NewRegistry(),
		suggester: suggestion.MostFrequent{Limit: 5},
		clock:     time.Now,
		currency:  DefaultCurrency,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.calculator = price.NewCalculator(l.catalog)
	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds how long a single plugin hook may run.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithCatalog sets the variable catalog formulas resolve against. The
// default is an empty variable.Registry.
func WithCatalog(c variable.Catalog) Option {
	return func(l *Ledger) {
		l.catalog = c
	}
}

// WithClock sets the clock used to stamp ledger events.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithSuggestionStrategy replaces the default MostFrequent strategy.
func WithSuggestionStrategy(s suggestion.Strategy) Option {
	return func(l *Ledger) {
		l.suggester = s
	}
}

// WithVariableConfigURL sets the link shown in summary problems. An {id}
// placeholder is replaced with the variable ID.
func WithVariableConfigURL(url string) Option {
	return func(l *Ledger) {
		l.variableConfigURL = url
	}
}

// WithCurrency sets the display currency code.
func WithCurrency(currency string) Option {
	return func(l *Ledger) {
		if currency != "" {
			l.currency = currency
		}
	}
}

// WithoutMigrate makes Start leave the store schema untouched.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started",
		"currency", l.currency,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop notifies plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Store returns the underlying event store.
func (l *Ledger) Store() store.Store { return l.store }

// Catalog returns the variable catalog formulas resolve against.
func (l *Ledger) Catalog() variable.Catalog { return l.catalog }

// Currency returns the display currency code.
func (l *Ledger) Currency() string { return l.currency }

// Format renders cents in the display currency.
func (l *Ledger) Format(c types.Cents) string { return c.Format(l.currency) }
