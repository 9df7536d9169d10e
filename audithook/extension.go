// Package audithook bridges Passage lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/passage/event"
	"github.com/xraph/passage/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnServiceCreated    = (*Extension)(nil)
	_ plugin.OnPriceChanged      = (*Extension)(nil)
	_ plugin.OnServicePaused     = (*Extension)(nil)
	_ plugin.OnServiceUnpaused   = (*Extension)(nil)
	_ plugin.OnSubscribed        = (*Extension)(nil)
	_ plugin.OnEarningsWithdrawn = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so the package does not import a concrete audit system;
// callers inject their own at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Passage lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Service lifecycle hooks
// ──────────────────────────────────────────────────

// OnServiceCreated implements plugin.OnServiceCreated.
func (e *Extension) OnServiceCreated(ctx context.Context, evt *event.ServiceCreated) error {
	return e.record(ctx, ActionServiceCreated, SeverityInfo,
		ResourceService, serviceRef(evt.ServiceID), CategoryCatalog,
		"event_id", evt.EventID.String(),
		"owner", evt.Owner.String(),
		"price", evt.Price.String(),
	)
}

// OnPriceChanged implements plugin.OnPriceChanged.
func (e *Extension) OnPriceChanged(ctx context.Context, evt *event.PriceChanged) error {
	return e.record(ctx, ActionPriceChanged, SeverityInfo,
		ResourceService, serviceRef(evt.ServiceID), CategoryCatalog,
		"event_id", evt.EventID.String(),
		"old_price", evt.OldPrice.String(),
		"new_price", evt.NewPrice.String(),
	)
}

// OnServicePaused implements plugin.OnServicePaused.
func (e *Extension) OnServicePaused(ctx context.Context, evt *event.ServicePaused) error {
	return e.record(ctx, ActionServicePaused, SeverityWarning,
		ResourceService, serviceRef(evt.ServiceID), CategoryCatalog,
		"event_id", evt.EventID.String(),
	)
}

// OnServiceUnpaused implements plugin.OnServiceUnpaused.
func (e *Extension) OnServiceUnpaused(ctx context.Context, evt *event.ServiceUnpaused) error {
	return e.record(ctx, ActionServiceUnpaused, SeverityInfo,
		ResourceService, serviceRef(evt.ServiceID), CategoryCatalog,
		"event_id", evt.EventID.String(),
	)
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (e *Extension) OnSubscribed(ctx context.Context, evt *event.Subscribed) error {
	return e.record(ctx, ActionSubscribed, SeverityInfo,
		ResourceSubscription, serviceRef(evt.ServiceID), CategorySubscription,
		"event_id", evt.EventID.String(),
		"payment_id", evt.PaymentID.String(),
		"subscriber", evt.Subscriber.String(),
		"payment", evt.Payment.String(),
		"new_expiry", evt.NewExpiry,
		"renewal", evt.Renewal,
	)
}

// ──────────────────────────────────────────────────
// Earnings lifecycle hooks
// ──────────────────────────────────────────────────

// OnEarningsWithdrawn implements plugin.OnEarningsWithdrawn.
func (e *Extension) OnEarningsWithdrawn(ctx context.Context, evt *event.EarningsWithdrawn) error {
	return e.record(ctx, ActionEarningsWithdrawn, SeverityInfo,
		ResourceEarnings, serviceRef(evt.ServiceID), CategoryPayment,
		"event_id", evt.EventID.String(),
		"receipt", evt.Receipt.String(),
		"owner", evt.Owner.String(),
		"amount", evt.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and swallowed; auditing never vetoes the
// operation that produced the event.
func (e *Extension) record(
	ctx context.Context,
	action, severity string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    OutcomeSuccess,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

func serviceRef(serviceID int64) string {
	return strconv.FormatInt(serviceID, 10)
}
