// Package payout defines the funds-transfer boundary Passage pays owners
// through, plus an in-process account book for tests and demos.
//
// The engine never talks to a payment rail directly: it calls a Transferer
// after an earnings balance has been consumed, and rolls the balance back
// if the transfer reports failure. Implementations must be synchronous and
// must report failure as an error, never by panicking.
package payout

import (
	"context"

	"github.com/xraph/passage/types"
)

// Transferer moves funds from the ledger to an identity.
type Transferer interface {
	Transfer(ctx context.Context, to types.Identity, amount types.Money) error
}

// TransfererFunc is an adapter to use a plain function as a Transferer.
type TransfererFunc func(ctx context.Context, to types.Identity, amount types.Money) error

// Transfer implements Transferer.
func (f TransfererFunc) Transfer(ctx context.Context, to types.Identity, amount types.Money) error {
	return f(ctx, to, amount)
}

// Discard is a Transferer that accepts every transfer and records nothing.
// Useful when the host application settles payouts elsewhere and only wants
// the ledger bookkeeping.
var Discard Transferer = TransfererFunc(
	func(context.Context, types.Identity, types.Money) error { return nil },
)
