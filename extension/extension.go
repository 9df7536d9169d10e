// Package extension provides the Forge extension adapter for Passage.
//
// It implements the forge.Extension interface to integrate Passage
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.passage" or "passage"
// keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/passage"
	"github.com/xraph/passage/payout"
	"github.com/xraph/passage/store"
	"github.com/xraph/passage/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "passage"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Embeddable subscription-rights ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Passage as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *passage.Engine
	store      store.Store
	bank       payout.Transferer
	engineOpts []passage.Option
}

// New creates a new Passage Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Passage engine.
// This is nil until Register is called.
func (e *Extension) Engine() *passage.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	// Without a transfer primitive, withdrawals succeed but route nowhere.
	// Suitable for development only, so say so.
	if e.bank == nil {
		e.bank = payout.Discard
		e.Logger().Warn("passage: no transferer configured, withdrawals will be discarded")
	}

	eng := passage.New(e.store, e.bank, e.buildEngineOpts()...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*passage.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("passage: extension not initialized")
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
		return errors.New("passage: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs passage.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []passage.Option {
	opts := make([]passage.Option, 0, len(e.engineOpts)+3)

	if e.config.AccessDuration > 0 {
		opts = append(opts, passage.WithAccessDuration(e.config.AccessDuration))
	}
	if e.config.HookTimeout > 0 {
		opts = append(opts, passage.WithHookTimeout(e.config.HookTimeout))
	}
	if e.config.DisableMigrate {
		opts = append(opts, passage.WithoutMigrate())
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("passage: configuration is required but not found in config files; " +
				"ensure 'extensions.passage' or 'passage' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("passage: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("access_duration", e.config.AccessDuration),
		forge.F("hook_timeout", e.config.HookTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.passage" first (namespaced pattern).
	if cm.IsSet("extensions.passage") {
		if err := cm.Bind("extensions.passage", &cfg); err == nil {
			e.Logger().Debug("passage: loaded config from file",
				forge.F("key", "extensions.passage"),
			)
			return cfg, true
		}
		e.Logger().Warn("passage: failed to bind extensions.passage config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "passage" key.
	if cm.IsSet("passage") {
		if err := cm.Bind("passage", &cfg); err == nil {
			e.Logger().Debug("passage: loaded config from file",
				forge.F("key", "passage"),
			)
			return cfg, true
		}
		e.Logger().Warn("passage: failed to bind passage config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.AccessDuration == 0 {
		cfg.AccessDuration = defaults.AccessDuration
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.AccessDuration == 0 && programmaticConfig.AccessDuration != 0 {
		yamlConfig.AccessDuration = programmaticConfig.AccessDuration
	}
	if yamlConfig.HookTimeout == 0 && programmaticConfig.HookTimeout != 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
