package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/passage"
	"github.com/xraph/passage/service"
	"github.com/xraph/passage/subscription"
	"github.com/xraph/passage/types"
)

func TestCreateServiceAssignsDenseIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	for want := int64(0); want < 3; want++ {
		svc := &service.Service{Owner: "alice", MonthlyPrice: types.USD(999)}
		id, err := s.CreateService(ctx, svc)
		if err != nil {
			t.Fatalf("CreateService: %v", err)
		}
		if id != want {
			t.Errorf("id = %d, want %d", id, want)
		}
		if svc.ID != want {
			t.Errorf("svc.ID = %d, want %d", svc.ID, want)
		}
	}

	next, err := s.NextServiceID(ctx)
	if err != nil {
		t.Fatalf("NextServiceID: %v", err)
	}
	if next != 3 {
		t.Errorf("NextServiceID = %d, want 3", next)
	}
}

func TestGetServiceReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateService(ctx, &service.Service{Owner: "alice", MonthlyPrice: types.USD(999)})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}

	got, err := s.GetService(ctx, id)
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	got.Paused = true

	again, err := s.GetService(ctx, id)
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	if again.Paused {
		t.Error("mutating a returned service leaked into the store")
	}
}

func TestGetServiceNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetService(context.Background(), 42); !errors.Is(err, passage.ErrServiceNotFound) {
		t.Errorf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestUpdateService(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateService(ctx, &service.Service{Owner: "alice", MonthlyPrice: types.USD(999)})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}

	svc, _ := s.GetService(ctx, id)
	svc.MonthlyPrice = types.USD(1299)
	svc.Paused = true
	if err := s.UpdateService(ctx, svc); err != nil {
		t.Fatalf("UpdateService: %v", err)
	}

	got, _ := s.GetService(ctx, id)
	if !got.MonthlyPrice.Equal(types.USD(1299)) || !got.Paused {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := s.UpdateService(ctx, &service.Service{ID: 99}); !errors.Is(err, passage.ErrServiceNotFound) {
		t.Errorf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestRecordSubscription(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateService(ctx, &service.Service{Owner: "alice", MonthlyPrice: types.USD(999)})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}

	expires := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	sub := &subscription.Subscription{ServiceID: id, Subscriber: "bob", ExpiresAt: expires}
	if err := s.RecordSubscription(ctx, sub, types.USD(999), true); err != nil {
		t.Fatalf("RecordSubscription: %v", err)
	}

	got, err := s.GetSubscription(ctx, id, "bob")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if !got.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}

	bal, err := s.Earnings(ctx, id)
	if err != nil {
		t.Fatalf("Earnings: %v", err)
	}
	if !bal.Equal(types.USD(999)) {
		t.Errorf("earnings = %v, want $9.99", bal)
	}

	svc, _ := s.GetService(ctx, id)
	if svc.SubscriberCount != 1 {
		t.Errorf("SubscriberCount = %d, want 1", svc.SubscriberCount)
	}

	// A renewal credits earnings but does not bump the counter.
	sub.ExpiresAt = expires.AddDate(0, 1, 0)
	if err := s.RecordSubscription(ctx, sub, types.USD(999), false); err != nil {
		t.Fatalf("RecordSubscription: %v", err)
	}
	bal, _ = s.Earnings(ctx, id)
	if !bal.Equal(types.USD(1998)) {
		t.Errorf("earnings = %v, want $19.98", bal)
	}
	svc, _ = s.GetService(ctx, id)
	if svc.SubscriberCount != 1 {
		t.Errorf("SubscriberCount = %d, want 1 after renewal", svc.SubscriberCount)
	}
}

func TestRecordSubscriptionUnknownService(t *testing.T) {
	s := New()
	sub := &subscription.Subscription{ServiceID: 7, Subscriber: "bob"}
	err := s.RecordSubscription(context.Background(), sub, types.USD(999), true)
	if !errors.Is(err, passage.ErrServiceNotFound) {
		t.Errorf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestGetSubscriptionNotFound(t *testing.T) {
	s := New()
	_, err := s.GetSubscription(context.Background(), 0, "nobody")
	if !errors.Is(err, passage.ErrSubscriptionNotFound) {
		t.Errorf("err = %v, want ErrSubscriptionNotFound", err)
	}
}

func TestEarningsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Unknown service reads as zero.
	bal, err := s.Earnings(ctx, 5)
	if err != nil {
		t.Fatalf("Earnings: %v", err)
	}
	if !bal.IsZero() {
		t.Errorf("earnings for unknown service = %v, want zero", bal)
	}

	id, _ := s.CreateService(ctx, &service.Service{Owner: "alice", MonthlyPrice: types.USD(999)})
	bal, _ = s.Earnings(ctx, id)
	if !bal.IsZero() || bal.Currency != "usd" {
		t.Errorf("fresh service earnings = %v, want zero usd", bal)
	}

	if err := s.SetEarnings(ctx, id, types.USD(500)); err != nil {
		t.Fatalf("SetEarnings: %v", err)
	}
	bal, _ = s.Earnings(ctx, id)
	if !bal.Equal(types.USD(500)) {
		t.Errorf("earnings = %v, want $5.00", bal)
	}

	if err := s.SetEarnings(ctx, 99, types.USD(1)); !errors.Is(err, passage.ErrServiceNotFound) {
		t.Errorf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, passage.ErrStoreClosed) {
		t.Errorf("Ping after close = %v, want ErrStoreClosed", err)
	}
	if _, err := s.CreateService(ctx, &service.Service{Owner: "a", MonthlyPrice: types.USD(1)}); !errors.Is(err, passage.ErrStoreClosed) {
		t.Errorf("CreateService after close = %v, want ErrStoreClosed", err)
	}
}
