package subscription

import (
	"time"

	"github.com/xraph/passage/types"
)

// State is the derived lifecycle state of a subscription at a point in
// time. It is computed from ExpiresAt on every read and never stored —
// storing it would create a second source of truth that can drift from
// the expiry.
type State string

const (
	StateNever   State = "never"   // no subscribe call has ever been recorded
	StateActive  State = "active"  // expiry is strictly in the future
	StateExpired State = "expired" // a past window exists, now lapsed
)

// Subscription is one subscriber's access-right window for one service.
// There is at most one per (service, subscriber) pair; subsequent
// subscribe calls extend or restart the same record.
type Subscription struct {
	ServiceID  int64          `json:"service_id"`
	Subscriber types.Identity `json:"subscriber"`

	// ExpiresAt is the end of the paid access window. The zero value means
	// "never subscribed".
	ExpiresAt time.Time `json:"expires_at"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveAt reports whether the subscription grants access at the given
// instant. The boundary is exclusive: access ends the moment now equals
// the expiry.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// StateAt classifies the subscription at the given instant.
func (s *Subscription) StateAt(now time.Time) State {
	switch {
	case s == nil || s.ExpiresAt.IsZero():
		return StateNever
	case s.ExpiresAt.After(now):
		return StateActive
	default:
		return StateExpired
	}
}
