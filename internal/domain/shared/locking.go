package shared

import (
	"context"

	"github.com/google/uuid"
)

// ProductLock is a held serialization lock over one or more products
type ProductLock interface {
	// Release frees the lock. Safe to call once; later calls are no-ops.
	Release(ctx context.Context) error
}

// ProductLocker serializes writers per product. Deductions, returns and
// undo all read a product's batch set, compute deltas and write it back;
// two writers interleaving on the same product would both observe stale
// quantities and over-deduct. Implementations must grant the lock to one
// caller at a time per product id and must lock multi-product sets in a
// stable order to avoid deadlock between concurrent callers.
type ProductLocker interface {
	// Acquire locks all given product ids, deduplicated. Returns a
	// TRANSACTION_FAILURE domain error when a lock cannot be obtained in
	// time, which callers may retry.
	Acquire(ctx context.Context, productIDs []uuid.UUID) (ProductLock, error)
}
