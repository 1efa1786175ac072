package persistence

import (
	"context"
	"errors"

	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fifoOrder is the canonical consumption order: oldest date first, batch id
// as the tiebreaker so equal-dated batches drain deterministically.
const fifoOrder = "date_added ASC, id ASC"

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Create persists a new batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// CreateAll persists multiple batches in one round trip
func (r *GormBatchRepository) CreateAll(ctx context.Context, batches []*inventory.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&batches).Error
}

// FindByID finds a batch by its ID. A missing row is not an error; callers
// translate the nil into their own not-found handling.
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// FindByIDs finds multiple batches by their IDs. Unknown ids are simply
// absent from the result.
func (r *GormBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*inventory.Batch, error) {
	if len(ids) == 0 {
		return []*inventory.Batch{}, nil
	}
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindActiveByProduct finds the active batches of one product, oldest first
func (r *GormBatchRepository) FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity > 0", productID).
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAllActive finds every active batch across all products, oldest first
func (r *GormBatchRepository) FindAllActive(ctx context.Context) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("quantity > 0").
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Save updates an existing batch. Only the quantity ever changes after
// creation; date_added stays untouched so the FIFO position is fixed for
// the life of the row. A vanished row reports not found instead of being
// recreated.
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	return saveBatch(r.db.WithContext(ctx), batch)
}

// SaveAll updates multiple batches atomically
func (r *GormBatchRepository) SaveAll(ctx context.Context, batches []*inventory.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range batches {
			if err := saveBatch(tx, batch); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveBatch(db *gorm.DB, batch *inventory.Batch) error {
	result := db.
		Model(&inventory.Batch{}).
		Where("id = ?", batch.ID).
		Updates(map[string]interface{}{
			"quantity":   batch.Quantity,
			"updated_at": batch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a batch row entirely
func (r *GormBatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.Batch{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByIDs removes multiple batch rows
func (r *GormBatchRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&inventory.Batch{}, "id IN ?", ids).Error
}

// DeleteRetired sweeps rows whose quantity reached zero and reports how
// many were removed
func (r *GormBatchRepository) DeleteRetired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("quantity <= 0").
		Delete(&inventory.Batch{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumActiveQuantity totals the quantity of a product's active batches
func (r *GormBatchRepository) SumActiveQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.Batch{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("product_id = ? AND quantity > 0", productID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
