// Package extension provides the Forge extension adapter for custody.
//
// It implements the forge.Extension interface to integrate the custody
// ledger into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.custody" or "custody" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/custody"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "custody"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Custodial payment ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the custody ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *custody.Ledger
	store      store.Store
	ledgerOpts []custody.Option

	useGrove bool
	groveDB  *grove.DB
}

// New creates a new custody Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *custody.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the ledger, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil && e.groveDB == nil && (e.useGrove || e.config.GroveDatabase != "") {
		db, err := resolveGroveDB(fapp, e.config.GroveDatabase)
		if err != nil {
			return err
		}
		e.groveDB = db
	}

	if err := e.build(); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*custody.Ledger, error) {
		return e.engine, nil
	})
}

// build constructs the ledger from the resolved config.
func (e *Extension) build() error {
	if e.store == nil && e.groveDB != nil {
		s, err := storeForGrove(e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	e.engine = custody.New(e.store, opts...)
	if e.config.PluginTimeout > 0 {
		e.engine.Plugins().WithTimeout(e.config.PluginTimeout)
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("custody: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("custody: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs custody.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]custody.Option, error) {
	opts := make([]custody.Option, 0, len(e.ledgerOpts)+4)

	if e.config.DisableMigrate {
		opts = append(opts, custody.WithoutMigrate())
	}

	if e.config.ProgramID != "" {
		programID, err := address.Parse(e.config.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("custody: invalid program_id: %w", err)
		}
		opts = append(opts, custody.WithProgramID(programID))
	}

	if e.config.MinimumBalance > 0 {
		opts = append(opts, custody.WithMinimumBalance(e.config.MinimumBalance))
	}

	switch e.config.ZeroAmountPolicy {
	case "", "reject":
		opts = append(opts, custody.WithZeroAmountPolicy(custody.RejectZeroAmount))
	case "record":
		opts = append(opts, custody.WithZeroAmountPolicy(custody.RecordZeroAmount))
	default:
		return nil, fmt.Errorf("custody: unknown zero_amount_policy %q", e.config.ZeroAmountPolicy)
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("custody: configuration is required but not found in config files; " +
				"ensure 'extensions.custody' or 'custody' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("custody: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("program_id", e.config.ProgramID),
		forge.F("minimum_balance", e.config.MinimumBalance),
		forge.F("zero_amount_policy", e.config.ZeroAmountPolicy),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("grove_database", e.config.GroveDatabase),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.custody", "custody"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("custody: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("custody: failed to bind config",
			forge.F("key", key),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.ZeroAmountPolicy == "" {
		cfg.ZeroAmountPolicy = defaults.ZeroAmountPolicy
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.ProgramID == "" {
		yamlConfig.ProgramID = programmaticConfig.ProgramID
	}
	if yamlConfig.MinimumBalance == 0 {
		yamlConfig.MinimumBalance = programmaticConfig.MinimumBalance
	}
	if yamlConfig.ZeroAmountPolicy == "" {
		yamlConfig.ZeroAmountPolicy = programmaticConfig.ZeroAmountPolicy
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.GroveDatabase == "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	return mergeWithDefaults(yamlConfig)
}
