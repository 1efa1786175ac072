package returns

import (
	"context"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReturnRepository defines the interface for return transaction persistence
type ReturnRepository interface {
	// Create persists a return together with its line items
	Create(ctx context.Context, ret *Return) error

	// FindByID finds a return by ID with its line items loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)

	// FindAll lists returns newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]Return, error)

	// Count counts all returns
	Count(ctx context.Context) (int64, error)

	// Delete removes a return and cascades to its line items
	Delete(ctx context.Context, id uuid.UUID) error
}
