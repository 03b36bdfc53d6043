package extension

import "time"

// Config holds the custody extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.custody" or "custody" keys).
type Config struct {
	// DisableMigrate prevents store migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// ProgramID is the base58 program identity addresses derive from
	// (default: the built-in program ID).
	ProgramID string `json:"program_id" mapstructure:"program_id" yaml:"program_id"`

	// MinimumBalance is the balance a payer must retain after paying, in
	// base units (default: 0).
	MinimumBalance uint64 `json:"minimum_balance" mapstructure:"minimum_balance" yaml:"minimum_balance"`

	// ZeroAmountPolicy is "reject" or "record" (default: "reject").
	ZeroAmountPolicy string `json:"zero_amount_policy" mapstructure:"zero_amount_policy" yaml:"zero_amount_policy"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and builds the
	// matching store for its driver (pg, sqlite or mongo). When empty and
	// WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ZeroAmountPolicy: "reject",
		PluginTimeout:    5 * time.Second,
	}
}
