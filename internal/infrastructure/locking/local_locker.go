package locking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cafepos/backend/internal/domain/shared"
)

// LocalProductLocker serializes product writers within one process
// using a channel slot per product. Suitable for development, tests and
// single-instance deployments; it cannot coordinate across nodes.
type LocalProductLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]chan struct{}
}

// NewLocalProductLocker creates an empty locker
func NewLocalProductLocker() *LocalProductLocker {
	return &LocalProductLocker{
		slots: make(map[uuid.UUID]chan struct{}),
	}
}

// Acquire locks every given product, deduplicated and in stable order.
// A cancelled or expired context releases whatever was already taken
// and reports a retryable TRANSACTION_FAILURE.
func (l *LocalProductLocker) Acquire(ctx context.Context, productIDs []uuid.UUID) (shared.ProductLock, error) {
	ids := sortedUniqueIDs(productIDs)

	acquired := make([]chan struct{}, 0, len(ids))
	for _, id := range ids {
		slot := l.slot(id)
		select {
		case slot <- struct{}{}:
			acquired = append(acquired, slot)
		case <-ctx.Done():
			for i := len(acquired) - 1; i >= 0; i-- {
				<-acquired[i]
			}
			return nil, shared.NewDomainError(shared.CodeTransactionFailure,
				fmt.Sprintf("Timed out waiting for lock on product %s", id))
		}
	}

	return &localProductLock{slots: acquired}, nil
}

// slot returns the channel guarding one product, creating it on first
// use. Slots are never removed; the map is bounded by the product
// count.
func (l *LocalProductLocker) slot(id uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[id] = slot
	}
	return slot
}

type localProductLock struct {
	slots    []chan struct{}
	released atomic.Bool
}

// Release frees the held slots in reverse order. Safe to call more than
// once.
func (p *localProductLock) Release(ctx context.Context) error {
	if !p.released.CompareAndSwap(false, true) {
		return nil
	}
	for i := len(p.slots) - 1; i >= 0; i-- {
		<-p.slots[i]
	}
	return nil
}

var _ shared.ProductLocker = (*LocalProductLocker)(nil)
var _ shared.ProductLock = (*localProductLock)(nil)
