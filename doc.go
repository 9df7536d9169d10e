// Package passage provides an embeddable subscription-rights ledger for Go
// applications.
//
// Passage is designed as a library, not a service. Import it directly into
// your application to track who paid for access to what, and until when.
// It provides:
//
//   - A service registry with creator ownership, monthly pricing, and a
//     pause switch
//   - Time-boxed access windows extended by a fixed duration per accepted
//     payment, with no paid-for time ever lost on early renewal
//   - Per-service pooled earnings with an atomic, consume-exactly-once
//     withdrawal protocol
//   - Pluggable event sinks for every committed state transition
//   - Memory, SQLite, and PostgreSQL storage backends behind one Store
//     interface
//
// # Quick Start
//
// Create an engine with your preferred store and a funds-transfer
// primitive:
//
//	import (
//	    "github.com/xraph/passage"
//	    "github.com/xraph/passage/payout"
//	    "github.com/xraph/passage/store/sqlite"
//	)
//
//	st, err := sqlite.Open("passage.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng := passage.New(st, bank)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Services are creator-owned offerings with a recurring price:
//
//	serviceID, err := eng.CreateService(ctx, "alice", passage.USD(999))
//
// Subscribing requires a payment exactly equal to the current monthly
// price and grants a fixed access window (30 days by default):
//
//	expiry, err := eng.Subscribe(ctx, "bob", serviceID, passage.USD(999))
//
// Paying again while still active appends a full window on top of the
// remaining time. Paying after a lapse restarts from now.
//
//	active, err := eng.IsSubscribed(ctx, "bob", serviceID)
//
// Payments pool per service until the owner withdraws them:
//
//	amount, err := eng.WithdrawEarnings(ctx, "alice", serviceID)
//
// # Semantics worth knowing
//
// All monetary values use integer arithmetic in the smallest currency
// unit (cents for USD, pence for GBP). Access checks are strict: a
// subscription is inactive at the exact expiry instant. The per-service
// SubscriberCount counts reactivations cumulatively, not currently-active
// subscribers.
//
// # Determinism
//
// The engine reads time through an injectable clock (see WithClock) and
// takes caller identity as an explicit argument on every operation, so
// behavior is fully reproducible in tests.
package passage
