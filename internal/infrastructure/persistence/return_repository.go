package persistence

import (
	"context"
	"errors"

	"github.com/cafepos/backend/internal/domain/returns"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Create persists a return together with its line items
func (r *GormReturnRepository) Create(ctx context.Context, ret *returns.Return) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

// FindByID finds a return by ID with its line items loaded. A missing row
// is not an error; callers translate the nil into their own not-found
// handling.
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.Return, error) {
	var ret returns.Return
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ret, nil
}

// FindAll lists returns newest first
func (r *GormReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.Return, error) {
	var rets []returns.Return
	query := r.applyFilter(r.db.WithContext(ctx).Preload("LineItems"), filter)
	if err := query.Find(&rets).Error; err != nil {
		return nil, err
	}
	return rets, nil
}

// Count counts all returns
func (r *GormReturnRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&returns.Return{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a return and cascades to its line items. The line items
// are deleted explicitly so the behavior does not depend on the store
// enforcing the foreign key.
func (r *GormReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("return_id = ?", id).
			Delete(&returns.ReturnLineItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&returns.Return{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyFilter applies pagination and ordering. Unknown sort fields fall
// back to processed_at so the listing stays newest first.
func (r *GormReturnRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ReturnSortFields, "processed_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// Ensure GormReturnRepository implements ReturnRepository
var _ returns.ReturnRepository = (*GormReturnRepository)(nil)
