// Package extension mounts the ledger engine into a Forge application.
//
// Register resolves the configuration (file keys "extensions.ledger" or
// "ledger", then Option values, then DefaultConfig), opens a store when none
// was supplied and provides the *ledger.Ledger through the DI container.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	ledger "github.com/campreg/ledger"
	"github.com/campreg/ledger/store"
	"github.com/campreg/ledger/store/memory"
	"github.com/campreg/ledger/store/sqlite"
	"github.com/campreg/ledger/suggestion"
)

const (
	// ExtensionName is the name registered with Forge.
	ExtensionName = "ledger"
	// ExtensionDescription is the human-readable description.
	ExtensionDescription = "Formula pricing and payment ledger"
	// ExtensionVersion is the semantic version.
	ExtensionVersion = "0.1.0"
)

var (
	errNotRegistered = errors.New("ledger: extension not registered")
	errConfigMissing = errors.New("ledger: configuration required under 'extensions.ledger' or 'ledger'")
)

var _ forge.Extension = (*Extension)(nil)

// Extension adapts Ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *ledger.Ledger
	store      store.Store
	ledgerOpts []ledger.Option
}

// New creates the extension. Nothing is opened until Register.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the ledger engine, or nil before Register.
func (e *Extension) Engine() *ledger.Ledger { return e.engine }

// Register implements [forge.Extension].
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	cfg, err := e.resolveConfig()
	if err != nil {
		return err
	}
	e.config = cfg

	if e.store == nil {
		if e.store, err = openStore(cfg); err != nil {
			return err
		}
	}

	e.engine = ledger.New(e.store, e.engineOptions()...)

	return vessel.Provide(fapp.Container(), func() (*ledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension]. Plugins see OnInit even when
// migration is disabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errNotRegistered
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}
	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()
	if e.engine == nil {
		return nil
	}
	return e.engine.Stop()
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errNotRegistered
	}
	return e.store.Ping(ctx)
}

// engineOptions translates the resolved config into ledger options.
// Pass-through options come last so they can override config values.
func (e *Extension) engineOptions() []ledger.Option {
	opts := []ledger.Option{
		ledger.WithCurrency(e.config.Currency),
		ledger.WithPluginTimeout(e.config.PluginTimeout),
		ledger.WithSuggestionStrategy(suggestion.MostFrequent{Limit: e.config.SuggestionLimit}),
	}
	if e.config.VariableConfigURL != "" {
		opts = append(opts, ledger.WithVariableConfigURL(e.config.VariableConfigURL))
	}
	if e.config.DisableMigrate {
		opts = append(opts, ledger.WithoutMigrate())
	}
	return append(opts, e.ledgerOpts...)
}

func (e *Extension) resolveConfig() (Config, error) {
	file, found := e.bindFileConfig()
	if !found && e.config.RequireConfig {
		return Config{}, errConfigMissing
	}

	cfg := mergeConfig(file, e.config)

	e.Logger().Debug("ledger: configuration resolved",
		forge.F("from_file", found),
		forge.F("disable_migrate", cfg.DisableMigrate),
		forge.F("currency", cfg.Currency),
		forge.F("plugin_timeout", cfg.PluginTimeout),
		forge.F("suggestion_limit", cfg.SuggestionLimit),
		forge.F("sqlite", cfg.SQLiteDSN != ""),
	)
	return cfg, nil
}

// bindFileConfig binds the first configured key that decodes.
func (e *Extension) bindFileConfig() (Config, bool) {
	cm := e.App().Config()
	for _, key := range configKeys {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("ledger: cannot bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		return cfg, true
	}
	return Config{}, false
}

// openStore picks SQLite when a DSN is configured and the in-memory store
// otherwise.
func openStore(cfg Config) (store.Store, error) {
	if cfg.SQLiteDSN == "" {
		return memory.New(), nil
	}
	s, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("ledger: open sqlite store: %w", err)
	}
	return s, nil
}
