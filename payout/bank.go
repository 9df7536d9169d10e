package payout

import (
	"context"
	"sync"

	"github.com/xraph/passage/types"
)

// MemoryBank is an in-memory Transferer that credits transfers to per-
// identity balances. It supports failure injection so tests can exercise
// the engine's rollback path.
type MemoryBank struct {
	mu       sync.RWMutex
	balances map[types.Identity]types.Money
	failWith error
	failCnt  int
}

// NewMemoryBank creates an empty in-memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[types.Identity]types.Money),
	}
}

// Transfer implements Transferer. When a failure has been injected it is
// returned without touching any balance.
func (b *MemoryBank) Transfer(_ context.Context, to types.Identity, amount types.Money) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failWith != nil {
		err := b.failWith
		if b.failCnt > 0 {
			b.failCnt--
			if b.failCnt == 0 {
				b.failWith = nil
			}
		}
		return err
	}

	if current, ok := b.balances[to]; ok {
		b.balances[to] = current.Add(amount)
	} else {
		b.balances[to] = amount
	}
	return nil
}

// Balance returns the accumulated balance for an identity. Unknown
// identities have a zero balance in the given currency.
func (b *MemoryBank) Balance(who types.Identity, currency string) types.Money {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if bal, ok := b.balances[who]; ok {
		return bal
	}
	return types.Zero(currency)
}

// FailNext makes the next n Transfer calls return err, then restores
// normal behavior. n <= 0 makes every call fail until FailWith(nil).
func (b *MemoryBank) FailNext(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
	b.failCnt = n
}

// FailWith makes every Transfer call return err until called with nil.
func (b *MemoryBank) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
	b.failCnt = 0
}
