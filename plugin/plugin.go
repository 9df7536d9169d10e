// Package plugin provides an extensible plugin system for Passage.
// Plugins can hook into ledger lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/passage/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Service lifecycle hooks
// ──────────────────────────────────────────────────

// OnServiceCreated is called when a new service is registered.
type OnServiceCreated interface {
	Plugin
	OnServiceCreated(ctx context.Context, evt *event.ServiceCreated) error
}

// OnPriceChanged is called when a service's monthly price is replaced.
type OnPriceChanged interface {
	Plugin
	OnPriceChanged(ctx context.Context, evt *event.PriceChanged) error
}

// OnServicePaused is called when a service stops accepting new subscriptions.
type OnServicePaused interface {
	Plugin
	OnServicePaused(ctx context.Context, evt *event.ServicePaused) error
}

// OnServiceUnpaused is called when a paused service resumes.
type OnServiceUnpaused interface {
	Plugin
	OnServiceUnpaused(ctx context.Context, evt *event.ServiceUnpaused) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscribed is called when a payment is accepted and an access window is
// granted or extended.
type OnSubscribed interface {
	Plugin
	OnSubscribed(ctx context.Context, evt *event.Subscribed) error
}

// ──────────────────────────────────────────────────
// Earnings hooks
// ──────────────────────────────────────────────────

// OnEarningsWithdrawn is called after pooled earnings have been paid out.
type OnEarningsWithdrawn interface {
	Plugin
	OnEarningsWithdrawn(ctx context.Context, evt *event.EarningsWithdrawn) error
}
