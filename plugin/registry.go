package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/passage/event"
)

// DefaultHookTimeout bounds how long a single plugin hook may run before
// the registry gives up on it.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It caches plugins per hook interface at registration time so that event
// emission does not type-assert on the hot path.
//
// Dispatch is synchronous and in registration order, which gives each
// operation's single notification a well-defined delivery order.
type Registry struct {
	mu          sync.RWMutex
	plugins     []Plugin
	logger      *slog.Logger
	hookTimeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onServiceCreated    []OnServiceCreated
	onPriceChanged      []OnPriceChanged
	onServicePaused     []OnServicePaused
	onServiceUnpaused   []OnServiceUnpaused
	onSubscribed        []OnSubscribed
	onEarningsWithdrawn []OnEarningsWithdrawn
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:      slog.Default(),
		hookTimeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithHookTimeout sets the per-hook timeout.
func (r *Registry) WithHookTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.hookTimeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnServiceCreated); ok {
		r.onServiceCreated = append(r.onServiceCreated, v)
	}
	if v, ok := p.(OnPriceChanged); ok {
		r.onPriceChanged = append(r.onPriceChanged, v)
	}
	if v, ok := p.(OnServicePaused); ok {
		r.onServicePaused = append(r.onServicePaused, v)
	}
	if v, ok := p.(OnServiceUnpaused); ok {
		r.onServiceUnpaused = append(r.onServiceUnpaused, v)
	}
	if v, ok := p.(OnSubscribed); ok {
		r.onSubscribed = append(r.onSubscribed, v)
	}
	if v, ok := p.(OnEarningsWithdrawn); ok {
		r.onEarningsWithdrawn = append(r.onEarningsWithdrawn, v)
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitServiceCreated emits a service created event.
func (r *Registry) EmitServiceCreated(ctx context.Context, evt *event.ServiceCreated) {
	r.mu.RLock()
	plugins := r.onServiceCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnServiceCreated(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnServiceCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPriceChanged emits a price changed event.
func (r *Registry) EmitPriceChanged(ctx context.Context, evt *event.PriceChanged) {
	r.mu.RLock()
	plugins := r.onPriceChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPriceChanged(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnPriceChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitServicePaused emits a service paused event.
func (r *Registry) EmitServicePaused(ctx context.Context, evt *event.ServicePaused) {
	r.mu.RLock()
	plugins := r.onServicePaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnServicePaused(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnServicePaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitServiceUnpaused emits a service unpaused event.
func (r *Registry) EmitServiceUnpaused(ctx context.Context, evt *event.ServiceUnpaused) {
	r.mu.RLock()
	plugins := r.onServiceUnpaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnServiceUnpaused(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnServiceUnpaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscribed emits a subscription accepted event.
func (r *Registry) EmitSubscribed(ctx context.Context, evt *event.Subscribed) {
	r.mu.RLock()
	plugins := r.onSubscribed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscribed(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnSubscribed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEarningsWithdrawn emits an earnings withdrawn event.
func (r *Registry) EmitEarningsWithdrawn(ctx context.Context, evt *event.EarningsWithdrawn) {
	r.mu.RLock()
	plugins := r.onEarningsWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEarningsWithdrawn(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnEarningsWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.hookTimeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
