// Package observability provides a metrics extension for Passage that
// records lifecycle event counts and payment volumes through a pluggable
// MetricFactory. A Prometheus-backed factory lives in the prom subpackage.
package observability

import (
	"context"

	"github.com/xraph/passage/event"
	"github.com/xraph/passage/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnServiceCreated    = (*MetricsExtension)(nil)
	_ plugin.OnPriceChanged      = (*MetricsExtension)(nil)
	_ plugin.OnServicePaused     = (*MetricsExtension)(nil)
	_ plugin.OnServiceUnpaused   = (*MetricsExtension)(nil)
	_ plugin.OnSubscribed        = (*MetricsExtension)(nil)
	_ plugin.OnEarningsWithdrawn = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an Engine plugin to automatically track ledger activity.
type MetricsExtension struct {
	factory MetricFactory

	// Service metrics
	ServiceCreated  Counter
	PriceChanged    Counter
	ServicePaused   Counter
	ServiceUnpaused Counter

	// Subscription metrics
	SubscriptionsGranted Counter
	SubscriptionRenewals Counter
	Reactivations        Counter
	PaymentAmount        Histogram

	// Payout metrics
	Withdrawals      Counter
	WithdrawalAmount Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Service metrics
		ServiceCreated:  factory.Counter("passage.service.created"),
		PriceChanged:    factory.Counter("passage.service.price_changed"),
		ServicePaused:   factory.Counter("passage.service.paused"),
		ServiceUnpaused: factory.Counter("passage.service.unpaused"),

		// Subscription metrics
		SubscriptionsGranted: factory.Counter("passage.subscription.granted"),
		SubscriptionRenewals: factory.Counter("passage.subscription.renewals"),
		Reactivations:        factory.Counter("passage.subscription.reactivations"),
		PaymentAmount:        factory.Histogram("passage.subscription.payment_amount"),

		// Payout metrics
		Withdrawals:      factory.Counter("passage.earnings.withdrawals"),
		WithdrawalAmount: factory.Histogram("passage.earnings.withdrawal_amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Service lifecycle hooks
// ──────────────────────────────────────────────────

// OnServiceCreated implements plugin.OnServiceCreated.
func (m *MetricsExtension) OnServiceCreated(_ context.Context, _ *event.ServiceCreated) error {
	m.ServiceCreated.Inc()
	return nil
}

// OnPriceChanged implements plugin.OnPriceChanged.
func (m *MetricsExtension) OnPriceChanged(_ context.Context, _ *event.PriceChanged) error {
	m.PriceChanged.Inc()
	return nil
}

// OnServicePaused implements plugin.OnServicePaused.
func (m *MetricsExtension) OnServicePaused(_ context.Context, _ *event.ServicePaused) error {
	m.ServicePaused.Inc()
	return nil
}

// OnServiceUnpaused implements plugin.OnServiceUnpaused.
func (m *MetricsExtension) OnServiceUnpaused(_ context.Context, _ *event.ServiceUnpaused) error {
	m.ServiceUnpaused.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (m *MetricsExtension) OnSubscribed(_ context.Context, evt *event.Subscribed) error {
	m.SubscriptionsGranted.Inc()
	if evt.Renewal {
		m.SubscriptionRenewals.Inc()
	} else {
		m.Reactivations.Inc()
	}
	m.PaymentAmount.Observe(float64(evt.Payment.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Payout lifecycle hooks
// ──────────────────────────────────────────────────

// OnEarningsWithdrawn implements plugin.OnEarningsWithdrawn.
func (m *MetricsExtension) OnEarningsWithdrawn(_ context.Context, evt *event.EarningsWithdrawn) error {
	m.Withdrawals.Inc()
	m.WithdrawalAmount.Observe(float64(evt.Amount.Amount))
	return nil
}
