package extension

import (
	"time"

	"github.com/xraph/passage"
	"github.com/xraph/passage/payout"
	"github.com/xraph/passage/plugin"
	"github.com/xraph/passage/store"
)

// Option configures the Passage Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTransferer sets the funds-transfer primitive used for withdrawals.
func WithTransferer(t payout.Transferer) Option {
	return func(e *Extension) {
		e.bank = t
	}
}

// WithEngineOption passes a passage.Option through to the underlying engine.
func WithEngineOption(opt passage.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, passage.WithPlugin(p))
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

// WithAccessDuration sets the access window granted per payment.
func WithAccessDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.AccessDuration = d }
}

// WithHookTimeout bounds how long a single plugin hook may run.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
