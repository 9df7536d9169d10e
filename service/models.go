package service

import (
	"time"

	"github.com/xraph/passage/types"
)

// Service is a creator-owned offering that sells time-boxed access at a
// recurring monthly price.
type Service struct {
	// ID is the ledger slot number: dense, assigned sequentially from 0 in
	// creation order, never reused. Allocated by the store at creation.
	ID int64 `json:"id"`

	// Owner is the creator's identity token. Immutable after creation.
	Owner types.Identity `json:"owner"`

	// MonthlyPrice is the exact payment a subscribe call must carry.
	// Always positive for an existing service.
	MonthlyPrice types.Money `json:"monthly_price"`

	// Paused blocks new subscribe calls (including early renewals by
	// currently-active subscribers). It never revokes access already paid
	// for, and reads are unaffected.
	Paused bool `json:"paused"`

	// SubscriberCount is a cumulative reactivation counter, not a live
	// active-subscriber count: it increments every time a subscribe call
	// finds the caller not currently active, so one user lapsing and
	// resubscribing repeatedly counts repeatedly. Kept with these exact
	// semantics for compatibility with existing consumers of the field.
	SubscriberCount int64 `json:"subscriber_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether caller is the service owner.
func (s *Service) OwnedBy(caller types.Identity) bool {
	return s.Owner == caller
}

// Details is the compact read shape for a service. Exists is false for
// unknown ids, in which case the other fields are zero values.
type Details struct {
	Owner        types.Identity `json:"owner"`
	MonthlyPrice types.Money    `json:"monthly_price"`
	Exists       bool           `json:"exists"`
}

// Info is the full read shape for a service.
type Info struct {
	Owner           types.Identity `json:"owner"`
	MonthlyPrice    types.Money    `json:"monthly_price"`
	Exists          bool           `json:"exists"`
	Paused          bool           `json:"paused"`
	SubscriberCount int64          `json:"subscriber_count"`
}
