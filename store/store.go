// Package store defines the unified storage contract for the Passage ledger.
package store

import (
	"context"

	"github.com/xraph/passage/service"
	"github.com/xraph/passage/subscription"
	"github.com/xraph/passage/types"
)

// Store is the unified storage interface for all ledger state: the service
// registry, the (service, subscriber) expiry map, and the per-service
// earnings balances.
//
// Mutators are operation-shaped rather than field-shaped: RecordSubscription
// commits an expiry write, an earnings credit, and the reactivation-count
// bump as a single all-or-nothing write, so one engine operation is one
// store commit. Lookups are by exact key; no caller may rely on iteration
// order.
//
// The engine serializes all mutating calls, so implementations only need
// internal locking to keep concurrent reads snapshot-consistent.
type Store interface {
	// Service methods
	CreateService(ctx context.Context, svc *service.Service) (int64, error)
	GetService(ctx context.Context, serviceID int64) (*service.Service, error)
	UpdateService(ctx context.Context, svc *service.Service) error
	NextServiceID(ctx context.Context) (int64, error)

	// Subscription methods
	GetSubscription(ctx context.Context, serviceID int64, subscriber types.Identity) (*subscription.Subscription, error)
	RecordSubscription(ctx context.Context, sub *subscription.Subscription, payment types.Money, newSubscriber bool) error

	// Earnings methods
	Earnings(ctx context.Context, serviceID int64) (types.Money, error)
	SetEarnings(ctx context.Context, serviceID int64, balance types.Money) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
