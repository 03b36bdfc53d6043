package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custody"
	"github.com/xraph/custody/plugin"
	"github.com/xraph/custody/store"
)

// Option configures the custody Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a custody.Option through to the underlying engine.
func WithLedgerOption(opt custody.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, custody.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents store migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithProgramID sets the base58 program identity.
func WithProgramID(programID string) Option {
	return func(e *Extension) { e.config.ProgramID = programID }
}

// WithMinimumBalance sets the balance a payer must retain after paying.
func WithMinimumBalance(amount uint64) Option {
	return func(e *Extension) { e.config.MinimumBalance = amount }
}

// WithZeroAmountPolicy sets "reject" or "record".
func WithZeroAmountPolicy(policy string) Option {
	return func(e *Extension) { e.config.ZeroAmountPolicy = policy }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI
// container. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}

// WithGroveDB builds the store on db directly instead of resolving one from
// the container.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.useGrove = true
	}
}
