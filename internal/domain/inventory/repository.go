package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchRepository defines the interface for batch persistence
type BatchRepository interface {
	// Create persists a new batch
	Create(ctx context.Context, batch *Batch) error

	// CreateAll persists multiple batches in one round trip
	CreateAll(ctx context.Context, batches []*Batch) error

	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByIDs finds multiple batches by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Batch, error)

	// FindActiveByProduct finds the active batches of one product, oldest first
	FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*Batch, error)

	// FindAllActive finds every active batch across all products, oldest first
	FindAllActive(ctx context.Context) ([]*Batch, error)

	// Save updates an existing batch
	Save(ctx context.Context, batch *Batch) error

	// SaveAll updates multiple batches
	SaveAll(ctx context.Context, batches []*Batch) error

	// Delete removes a batch row entirely
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByIDs removes multiple batch rows
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error

	// DeleteRetired sweeps rows whose quantity reached zero and reports how
	// many were removed
	DeleteRetired(ctx context.Context) (int64, error)

	// SumActiveQuantity totals the quantity of a product's active batches.
	// This is the canonical total-stock aggregate; it must agree with
	// summing FindActiveByProduct.
	SumActiveQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
