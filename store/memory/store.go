// Package memory provides an in-memory Store for tests, demos, and hosts
// that keep ledger state ephemeral.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/passage"
	"github.com/xraph/passage/service"
	"github.com/xraph/passage/store"
	"github.com/xraph/passage/subscription"
	"github.com/xraph/passage/types"
)

var _ store.Store = (*Store)(nil)

// Store keeps all ledger state in maps guarded by one RWMutex, so
// concurrent readers always observe a consistent snapshot of a committed
// state, never a half-applied mutation.
type Store struct {
	mu sync.RWMutex

	// Service registry; nextServiceID is the dense sequential allocator.
	services      map[int64]*service.Service
	nextServiceID int64

	// (service id, subscriber) -> access window
	subscriptions map[subKey]*subscription.Subscription

	// service id -> pooled, not-yet-withdrawn payments
	earnings map[int64]types.Money

	closed bool
}

type subKey struct {
	serviceID  int64
	subscriber types.Identity
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		services:      make(map[int64]*service.Service),
		subscriptions: make(map[subKey]*subscription.Subscription),
		earnings:      make(map[int64]types.Money),
	}
}

// Service Store implementation

func (s *Store) CreateService(_ context.Context, svc *service.Service) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, passage.ErrStoreClosed
	}

	id := s.nextServiceID
	s.nextServiceID++

	svc.ID = id
	stored := *svc
	s.services[id] = &stored
	s.earnings[id] = types.Zero(svc.MonthlyPrice.Currency)

	return id, nil
}

func (s *Store) GetService(_ context.Context, serviceID int64) (*service.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if svc, ok := s.services[serviceID]; ok {
		cp := *svc
		return &cp, nil
	}
	return nil, passage.ErrServiceNotFound
}

func (s *Store) UpdateService(_ context.Context, svc *service.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[svc.ID]; !ok {
		return passage.ErrServiceNotFound
	}
	stored := *svc
	s.services[svc.ID] = &stored
	return nil
}

func (s *Store) NextServiceID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextServiceID, nil
}

// Subscription Store implementation

func (s *Store) GetSubscription(_ context.Context, serviceID int64, subscriber types.Identity) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subKey{serviceID, subscriber}]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, passage.ErrSubscriptionNotFound
}

func (s *Store) RecordSubscription(_ context.Context, sub *subscription.Subscription, payment types.Money, newSubscriber bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[sub.ServiceID]
	if !ok {
		return passage.ErrServiceNotFound
	}

	// All three writes land under one lock hold: a concurrent reader sees
	// either none of them or all of them.
	stored := *sub
	s.subscriptions[subKey{sub.ServiceID, sub.Subscriber}] = &stored

	s.earnings[sub.ServiceID] = s.creditLocked(sub.ServiceID, payment)

	if newSubscriber {
		svc.SubscriberCount++
	}
	return nil
}

// Earnings Store implementation

func (s *Store) Earnings(_ context.Context, serviceID int64) (types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if bal, ok := s.earnings[serviceID]; ok {
		return bal, nil
	}
	return types.Money{}, nil
}

func (s *Store) SetEarnings(_ context.Context, serviceID int64, balance types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[serviceID]; !ok {
		return passage.ErrServiceNotFound
	}
	s.earnings[serviceID] = balance
	return nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // nothing to migrate for the memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return passage.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// creditLocked adds payment to a service's balance. Caller holds s.mu.
func (s *Store) creditLocked(serviceID int64, payment types.Money) types.Money {
	bal, ok := s.earnings[serviceID]
	if !ok || bal.IsZero() {
		return payment
	}
	return bal.Add(payment)
}

// String implements fmt.Stringer for debug logging.
func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("memory.Store{services: %d, subscriptions: %d}", len(s.services), len(s.subscriptions))
}
