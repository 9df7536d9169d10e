package extension

import "time"

// Config holds the Passage extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.passage" or "passage" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// AccessDuration is the access window granted per accepted payment
	// (default: 720h, i.e. 30 days).
	AccessDuration time.Duration `json:"access_duration" mapstructure:"access_duration" yaml:"access_duration"`

	// HookTimeout bounds how long a single plugin hook may run
	// (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AccessDuration: 30 * 24 * time.Hour,
		HookTimeout:    5 * time.Second,
	}
}
