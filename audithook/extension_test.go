package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/passage/event"
	"github.com/xraph/passage/id"
	"github.com/xraph/passage/types"
)

type captureRecorder struct {
	events []*AuditEvent
	err    error
}

func (r *captureRecorder) Record(_ context.Context, evt *AuditEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, evt)
	return nil
}

func TestRecordsServiceCreated(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec)

	err := ext.OnServiceCreated(context.Background(), &event.ServiceCreated{
		EventID:   id.NewEventID(),
		ServiceID: 3,
		Owner:     "alice",
		Price:     types.USD(999),
	})
	if err != nil {
		t.Fatalf("OnServiceCreated: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(rec.events))
	}
	evt := rec.events[0]
	if evt.Action != ActionServiceCreated {
		t.Errorf("action = %q, want %q", evt.Action, ActionServiceCreated)
	}
	if evt.Resource != ResourceService || evt.ResourceID != "3" {
		t.Errorf("resource = %q/%q", evt.Resource, evt.ResourceID)
	}
	if evt.Outcome != OutcomeSuccess || evt.Severity != SeverityInfo {
		t.Errorf("outcome/severity = %q/%q", evt.Outcome, evt.Severity)
	}
	if evt.Metadata["owner"] != "alice" {
		t.Errorf("metadata owner = %v", evt.Metadata["owner"])
	}
}

func TestRecordsWithdrawal(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec)

	err := ext.OnEarningsWithdrawn(context.Background(), &event.EarningsWithdrawn{
		EventID:   id.NewEventID(),
		Receipt:   id.NewWithdrawalID(),
		ServiceID: 0,
		Owner:     "alice",
		Amount:    types.USD(2997),
	})
	if err != nil {
		t.Fatalf("OnEarningsWithdrawn: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(rec.events))
	}
	evt := rec.events[0]
	if evt.Action != ActionEarningsWithdrawn || evt.Category != CategoryPayment {
		t.Errorf("action/category = %q/%q", evt.Action, evt.Category)
	}
	if evt.Metadata["receipt"] == "" {
		t.Error("receipt missing from metadata")
	}
}

func TestEnabledActionsFilter(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec, WithEnabledActions(ActionEarningsWithdrawn))

	ctx := context.Background()
	ext.OnServiceCreated(ctx, &event.ServiceCreated{ServiceID: 1})
	ext.OnServicePaused(ctx, &event.ServicePaused{ServiceID: 1})
	ext.OnEarningsWithdrawn(ctx, &event.EarningsWithdrawn{ServiceID: 1, Amount: types.USD(1)})

	if len(rec.events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(rec.events))
	}
	if rec.events[0].Action != ActionEarningsWithdrawn {
		t.Errorf("action = %q", rec.events[0].Action)
	}
}

func TestDisabledActionsFilter(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec, WithDisabledActions(ActionSubscribed))

	ctx := context.Background()
	ext.OnSubscribed(ctx, &event.Subscribed{ServiceID: 1})
	ext.OnServiceCreated(ctx, &event.ServiceCreated{ServiceID: 1})

	if len(rec.events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(rec.events))
	}
	if rec.events[0].Action != ActionServiceCreated {
		t.Errorf("action = %q", rec.events[0].Action)
	}
}

func TestRecorderFailureDoesNotPropagate(t *testing.T) {
	rec := &captureRecorder{err: errors.New("audit backend down")}
	ext := New(rec, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	if err := ext.OnServiceCreated(context.Background(), &event.ServiceCreated{ServiceID: 1}); err != nil {
		t.Errorf("recorder failure surfaced to the engine: %v", err)
	}
}

func TestRecorderFunc(t *testing.T) {
	var got *AuditEvent
	ext := New(RecorderFunc(func(_ context.Context, evt *AuditEvent) error {
		got = evt
		return nil
	}))

	ext.OnServiceUnpaused(context.Background(), &event.ServiceUnpaused{ServiceID: 5})
	if got == nil || got.Action != ActionServiceUnpaused {
		t.Errorf("event = %+v", got)
	}
}
