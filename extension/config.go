package extension

import "time"

// configKeys are tried in order when binding file configuration.
var configKeys = []string{"extensions.ledger", "ledger"}

// Config holds the Ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.ledger" or "ledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Currency is the display currency code (default: "eur").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// VariableConfigURL is linked from summary problems. An {id}
	// placeholder is replaced with the variable ID.
	VariableConfigURL string `json:"variable_config_url" mapstructure:"variable_config_url" yaml:"variable_config_url"`

	// PluginTimeout bounds a single plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// SuggestionLimit caps the number of suggested amounts (default: 5).
	SuggestionLimit int `json:"suggestion_limit" mapstructure:"suggestion_limit" yaml:"suggestion_limit"`

	// SQLiteDSN opens the SQLite store when no store was provided
	// programmatically. When empty the in-memory store is used.
	SQLiteDSN string `json:"sqlite_dsn" mapstructure:"sqlite_dsn" yaml:"sqlite_dsn"`

	// RequireConfig makes Register fail when no file configuration exists.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:        "eur",
		PluginTimeout:   5 * time.Second,
		SuggestionLimit: 5,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	return c.fillFrom(DefaultConfig())
}

// fillFrom copies every field of other into c that c leaves at its zero
// value. DisableMigrate is sticky: true on either side wins.
func (c Config) fillFrom(other Config) Config {
	c.DisableMigrate = c.DisableMigrate || other.DisableMigrate
	if c.Currency == "" {
		c.Currency = other.Currency
	}
	if c.VariableConfigURL == "" {
		c.VariableConfigURL = other.VariableConfigURL
	}
	if c.SQLiteDSN == "" {
		c.SQLiteDSN = other.SQLiteDSN
	}
	if c.PluginTimeout == 0 {
		c.PluginTimeout = other.PluginTimeout
	}
	if c.SuggestionLimit == 0 {
		c.SuggestionLimit = other.SuggestionLimit
	}
	return c
}

// mergeConfig layers file configuration over programmatic options and
// defaults, in that order of precedence.
func mergeConfig(file, programmatic Config) Config {
	return file.fillFrom(programmatic).withDefaults()
}
