// Package event defines the notification payloads Passage emits to its
// plugin sink.
//
// Every successful mutating operation emits exactly one event, after its
// state transition has committed. Failed operations emit nothing. Delivery
// is fire-and-forget: sinks cannot veto or roll back the operation that
// produced the event.
package event

import (
	"time"

	"github.com/xraph/passage/id"
	"github.com/xraph/passage/types"
)

// ServiceCreated is emitted when a new service is registered.
type ServiceCreated struct {
	EventID   id.EventID     `json:"event_id"`
	ServiceID int64          `json:"service_id"`
	Owner     types.Identity `json:"owner"`
	Price     types.Money    `json:"price"`
}

// PriceChanged is emitted when a service owner replaces the monthly price.
// Existing subscribers keep the time they already paid for.
type PriceChanged struct {
	EventID   id.EventID  `json:"event_id"`
	ServiceID int64       `json:"service_id"`
	OldPrice  types.Money `json:"old_price"`
	NewPrice  types.Money `json:"new_price"`
}

// ServicePaused is emitted when a service stops accepting new subscribe
// calls.
type ServicePaused struct {
	EventID   id.EventID `json:"event_id"`
	ServiceID int64      `json:"service_id"`
}

// ServiceUnpaused is emitted when a paused service resumes accepting
// subscribe calls.
type ServiceUnpaused struct {
	EventID   id.EventID `json:"event_id"`
	ServiceID int64      `json:"service_id"`
}

// Subscribed is emitted when a payment is accepted and an access window is
// granted or extended.
type Subscribed struct {
	EventID    id.EventID     `json:"event_id"`
	PaymentID  id.PaymentID   `json:"payment_id"`
	ServiceID  int64          `json:"service_id"`
	Subscriber types.Identity `json:"subscriber"`
	Payment    types.Money    `json:"payment"`
	NewExpiry  time.Time      `json:"new_expiry"`

	// Renewal is true when the caller was still active at the moment of the
	// call, i.e. the window was extended rather than (re)started.
	Renewal bool `json:"renewal"`
}

// EarningsWithdrawn is emitted when pooled earnings are paid out to the
// service owner. Emitted only after the funds transfer has succeeded.
type EarningsWithdrawn struct {
	EventID   id.EventID      `json:"event_id"`
	Receipt   id.WithdrawalID `json:"receipt"`
	ServiceID int64           `json:"service_id"`
	Owner     types.Identity  `json:"owner"`
	Amount    types.Money     `json:"amount"`
}
