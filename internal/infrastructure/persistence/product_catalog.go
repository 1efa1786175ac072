package persistence

import (
	"context"
	"errors"

	"github.com/cafepos/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductCatalog implements ProductCatalog using GORM. It only ever
// reads; product rows are owned by the catalog service and arrive through
// replication, never through this process.
type GormProductCatalog struct {
	db *gorm.DB
}

// NewGormProductCatalog creates a new GormProductCatalog
func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// GetProduct loads a single product. A missing row is not an error; callers
// translate the nil into their own not-found handling.
func (r *GormProductCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetProducts loads the given products keyed by id. Unknown ids are simply
// absent from the result.
func (r *GormProductCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	result := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}

	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// Ensure GormProductCatalog implements ProductCatalog
var _ catalog.ProductCatalog = (*GormProductCatalog)(nil)
