package passage

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
//
// An operation that returns any of these has made zero observable state
// change and emitted no notification: there is no partial success.
var (
	// Validation errors
	ErrInvalidPrice = errors.New("passage: price must be positive")
	ErrNoIdentity   = errors.New("passage: caller identity required")

	// Service errors
	ErrServiceNotFound = errors.New("passage: service not found")
	ErrServicePaused   = errors.New("passage: service is paused")
	ErrNotOwner        = errors.New("passage: caller is not the service owner")

	// Subscription errors
	ErrIncorrectPayment     = errors.New("passage: payment does not match monthly price")
	ErrSubscriptionNotFound = errors.New("passage: subscription not found")

	// Earnings errors
	ErrNoEarnings     = errors.New("passage: no earnings to withdraw")
	ErrTransferFailed = errors.New("passage: funds transfer failed")

	// Store errors
	ErrStoreClosed     = errors.New("passage: store is closed")
	ErrMigrationFailed = errors.New("passage: migration failed")
)

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// IsRejected returns true if the error is a validation or policy rejection,
// i.e. the caller's request was understood and refused (as opposed to an
// infrastructure failure).
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrNoIdentity) ||
		errors.Is(err, ErrServicePaused) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrIncorrectPayment) ||
		errors.Is(err, ErrNoEarnings)
}

// transferError wraps the transfer primitive's failure under
// ErrTransferFailed so callers can match the sentinel while keeping the
// underlying cause.
func transferError(cause error) error {
	if cause == nil {
		return ErrTransferFailed
	}
	return fmt.Errorf("%w: %v", ErrTransferFailed, cause)
}
