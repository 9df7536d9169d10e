package passage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/passage/event"
	"github.com/xraph/passage/id"
	"github.com/xraph/passage/payout"
	"github.com/xraph/passage/plugin"
	"github.com/xraph/passage/service"
	"github.com/xraph/passage/store"
	"github.com/xraph/passage/subscription"
	"github.com/xraph/passage/types"
)

// DefaultAccessDuration is the access window granted per accepted payment.
const DefaultAccessDuration = 30 * 24 * time.Hour

// Engine is the subscription ledger. It owns the service registry, the
// per-subscriber access windows, and the pooled earnings balances, and it
// is the only component allowed to mutate them.
//
// Every mutating operation runs under the write half of one engine-wide
// lock, so a state transition commits in full before the next one
// starts. Read accessors hold the read half, so they never observe a
// multi-write operation midway through.
type Engine struct {
	store   store.Store
	bank    payout.Transferer
	plugins *plugin.Registry
	logger  *slog.Logger

	clock          func() time.Time
	accessDuration time.Duration
	disableMigrate bool

	// Writers are mutating operations, readers the accessors.
	mu sync.RWMutex
}

// New creates an Engine on top of a store and a funds-transfer primitive.
func New(s store.Store, bank payout.Transferer, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		bank:           bank,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		clock:          time.Now,
		accessDuration: DefaultAccessDuration,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock overrides the time source. Tests use this to warp time across
// expiry boundaries.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithAccessDuration overrides the access window granted per payment.
func WithAccessDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.accessDuration = d
	}
}

// WithHookTimeout bounds how long a single plugin hook may run.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithHookTimeout(d)
	}
}

// WithoutMigrate skips schema migration on Start. Use when the schema is
// managed externally.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.disableMigrate = true
	}
}

// Plugins exposes the plugin registry for late registration.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// AccessDuration reports the configured access window.
func (e *Engine) AccessDuration() time.Duration { return e.accessDuration }

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if !e.disableMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("passage started",
		"access_duration", e.accessDuration,
		"plugins", e.plugins.Count(),
	)
	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Service Registry
// ──────────────────────────────────────────────────

// CreateService registers a new service owned by caller and returns its
// id. Ids are dense and sequential, starting at 0.
func (e *Engine) CreateService(ctx context.Context, caller types.Identity, price types.Money) (int64, error) {
	if caller.IsZero() {
		return 0, ErrNoIdentity
	}
	if !price.IsPositive() {
		return 0, ErrInvalidPrice
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	svc := &service.Service{
		Owner:        caller,
		MonthlyPrice: price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	serviceID, err := e.store.CreateService(ctx, svc)
	if err != nil {
		return 0, err
	}

	e.plugins.EmitServiceCreated(ctx, &event.ServiceCreated{
		EventID:   id.NewEventID(),
		ServiceID: serviceID,
		Owner:     caller,
		Price:     price,
	})
	e.logger.Info("service created", "service_id", serviceID, "owner", caller, "price", price)
	return serviceID, nil
}

// UpdateServicePrice replaces a service's monthly price. Existing
// subscribers keep the time they already paid for.
func (e *Engine) UpdateServicePrice(ctx context.Context, caller types.Identity, serviceID int64, newPrice types.Money) error {
	if caller.IsZero() {
		return ErrNoIdentity
	}
	if !newPrice.IsPositive() {
		return ErrInvalidPrice
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return err
	}
	if !svc.OwnedBy(caller) {
		return ErrNotOwner
	}

	if newPrice.Currency != svc.MonthlyPrice.Currency {
		// The earnings pool holds a single currency. Switching is only
		// possible while the pool is empty.
		bal, err := e.store.Earnings(ctx, serviceID)
		if err != nil {
			return err
		}
		if !bal.IsZero() {
			return ErrInvalidPrice
		}
	}

	oldPrice := svc.MonthlyPrice
	svc.MonthlyPrice = newPrice
	svc.UpdatedAt = e.clock()
	if err := e.store.UpdateService(ctx, svc); err != nil {
		return err
	}

	e.plugins.EmitPriceChanged(ctx, &event.PriceChanged{
		EventID:   id.NewEventID(),
		ServiceID: serviceID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
	})
	e.logger.Info("price changed", "service_id", serviceID, "old", oldPrice, "new", newPrice)
	return nil
}

// PauseService blocks new subscribe calls on a service. Active
// subscriptions are untouched.
func (e *Engine) PauseService(ctx context.Context, caller types.Identity, serviceID int64) error {
	return e.setPaused(ctx, caller, serviceID, true)
}

// UnpauseService resumes subscribe calls on a paused service.
func (e *Engine) UnpauseService(ctx context.Context, caller types.Identity, serviceID int64) error {
	return e.setPaused(ctx, caller, serviceID, false)
}

func (e *Engine) setPaused(ctx context.Context, caller types.Identity, serviceID int64, paused bool) error {
	if caller.IsZero() {
		return ErrNoIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return err
	}
	if !svc.OwnedBy(caller) {
		return ErrNotOwner
	}
	// Idempotent: re-pausing a paused service commits and emits like any
	// other successful call.
	svc.Paused = paused
	svc.UpdatedAt = e.clock()
	if err := e.store.UpdateService(ctx, svc); err != nil {
		return err
	}

	if paused {
		e.plugins.EmitServicePaused(ctx, &event.ServicePaused{
			EventID:   id.NewEventID(),
			ServiceID: serviceID,
		})
	} else {
		e.plugins.EmitServiceUnpaused(ctx, &event.ServiceUnpaused{
			EventID:   id.NewEventID(),
			ServiceID: serviceID,
		})
	}
	e.logger.Info("service pause toggled", "service_id", serviceID, "paused", paused)
	return nil
}

// ──────────────────────────────────────────────────
// Subscription Engine
// ──────────────────────────────────────────────────

// Subscribe accepts an exact payment and grants or extends the caller's
// access window. The new expiry is returned.
//
// Extension is monotonic: paying while still active appends a full window
// on top of the remaining time, so no paid-for time is ever lost. Paying
// after a lapse starts a fresh window from now.
func (e *Engine) Subscribe(ctx context.Context, caller types.Identity, serviceID int64, payment types.Money) (time.Time, error) {
	if caller.IsZero() {
		return time.Time{}, ErrNoIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return time.Time{}, err
	}
	if svc.Paused {
		return time.Time{}, ErrServicePaused
	}
	if !payment.Equal(svc.MonthlyPrice) {
		return time.Time{}, ErrIncorrectPayment
	}

	now := e.clock()

	prev, err := e.store.GetSubscription(ctx, serviceID, caller)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return time.Time{}, err
	}

	// A caller whose window has lapsed (or who never had one) restarts
	// from now and counts as a reactivation. A still-active caller extends
	// from the stored expiry.
	base := now
	renewal := false
	if prev != nil && prev.ExpiresAt.After(now) {
		base = prev.ExpiresAt
		renewal = true
	}
	newExpiry := base.Add(e.accessDuration)

	sub := &subscription.Subscription{
		ServiceID:  serviceID,
		Subscriber: caller,
		ExpiresAt:  newExpiry,
		UpdatedAt:  now,
	}
	if err := e.store.RecordSubscription(ctx, sub, payment, !renewal); err != nil {
		return time.Time{}, err
	}

	e.plugins.EmitSubscribed(ctx, &event.Subscribed{
		EventID:    id.NewEventID(),
		PaymentID:  id.NewPaymentID(),
		ServiceID:  serviceID,
		Subscriber: caller,
		Payment:    payment,
		NewExpiry:  newExpiry,
		Renewal:    renewal,
	})
	e.logger.Info("subscribed",
		"service_id", serviceID,
		"subscriber", caller,
		"new_expiry", newExpiry,
		"renewal", renewal,
	)
	return newExpiry, nil
}

// IsSubscribed reports whether user holds an unexpired access window on
// serviceID. It is false for unknown services and unknown users alike,
// and false at the exact expiry instant. The error is nil unless the
// store itself fails.
func (e *Engine) IsSubscribed(ctx context.Context, user types.Identity, serviceID int64) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sub, err := e.store.GetSubscription(ctx, serviceID, user)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.ActiveAt(e.clock()), nil
}

// ──────────────────────────────────────────────────
// Earnings & Withdrawal
// ──────────────────────────────────────────────────

// WithdrawEarnings pays the pooled balance of a service out to its owner
// and returns the amount transferred.
//
// The balance is zeroed before the transfer runs and restored if the
// transfer fails, so a balance is consumed exactly once per successful
// transfer attempt.
func (e *Engine) WithdrawEarnings(ctx context.Context, caller types.Identity, serviceID int64) (types.Money, error) {
	if caller.IsZero() {
		return types.Money{}, ErrNoIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return types.Money{}, err
	}
	if !svc.OwnedBy(caller) {
		return types.Money{}, ErrNotOwner
	}

	amount, err := e.store.Earnings(ctx, serviceID)
	if err != nil {
		return types.Money{}, err
	}
	if amount.IsZero() {
		return types.Money{}, ErrNoEarnings
	}

	if err := e.store.SetEarnings(ctx, serviceID, types.Zero(amount.Currency)); err != nil {
		return types.Money{}, err
	}

	if err := e.bank.Transfer(ctx, caller, amount); err != nil {
		if restoreErr := e.store.SetEarnings(ctx, serviceID, amount); restoreErr != nil {
			// The pool was drained but the owner was not paid. This needs
			// operator attention; the amount is in the log.
			e.logger.Error("failed to restore earnings after transfer failure",
				"service_id", serviceID,
				"amount", amount,
				"transfer_error", err,
				"restore_error", restoreErr,
			)
		}
		return types.Money{}, transferError(err)
	}

	e.plugins.EmitEarningsWithdrawn(ctx, &event.EarningsWithdrawn{
		EventID:   id.NewEventID(),
		Receipt:   id.NewWithdrawalID(),
		ServiceID: serviceID,
		Owner:     caller,
		Amount:    amount,
	})
	e.logger.Info("earnings withdrawn", "service_id", serviceID, "owner", caller, "amount", amount)
	return amount, nil
}

// ──────────────────────────────────────────────────
// Read-only accessors
// ──────────────────────────────────────────────────

// SubscriptionExpiry returns user's stored expiry on serviceID, or the
// zero time when no window was ever granted.
func (e *Engine) SubscriptionExpiry(ctx context.Context, user types.Identity, serviceID int64) (time.Time, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sub, err := e.store.GetSubscription(ctx, serviceID, user)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return sub.ExpiresAt, nil
}

// Earnings returns the pooled, not-yet-withdrawn balance of a service.
// Unknown services read as zero.
func (e *Engine) Earnings(ctx context.Context, serviceID int64) (types.Money, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.Earnings(ctx, serviceID)
}

// NextServiceID returns the id the next CreateService call will assign.
func (e *Engine) NextServiceID(ctx context.Context) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.NextServiceID(ctx)
}

// ServiceDetails returns the public shape of a service. Unknown ids
// return Exists == false rather than an error.
func (e *Engine) ServiceDetails(ctx context.Context, serviceID int64) (service.Details, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	svc, err := e.store.GetService(ctx, serviceID)
	if errors.Is(err, ErrServiceNotFound) {
		return service.Details{}, nil
	}
	if err != nil {
		return service.Details{}, err
	}
	return service.Details{
		Owner:        svc.Owner,
		MonthlyPrice: svc.MonthlyPrice,
		Exists:       true,
	}, nil
}

// ServiceInfo returns the extended public shape of a service, including
// pause state and the reactivation counter.
func (e *Engine) ServiceInfo(ctx context.Context, serviceID int64) (service.Info, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	svc, err := e.store.GetService(ctx, serviceID)
	if errors.Is(err, ErrServiceNotFound) {
		return service.Info{}, nil
	}
	if err != nil {
		return service.Info{}, err
	}
	return service.Info{
		Owner:           svc.Owner,
		MonthlyPrice:    svc.MonthlyPrice,
		Exists:          true,
		Paused:          svc.Paused,
		SubscriberCount: svc.SubscriberCount,
	}, nil
}
