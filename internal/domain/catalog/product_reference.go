// Package catalog exposes product reference data to the inventory ledger.
// Products are owned by the catalog service; this core only reads the
// pricing fields the Returns Processor needs.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the read-only product reference. It deliberately carries no
// aggregate machinery: nothing in the ledger mutates it.
type Product struct {
	ID                      uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name                    string           `gorm:"type:varchar(200);not null"`
	OriginalPrice           decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	SalePrice               decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	DefaultReturnPercentage *decimal.Decimal `gorm:"type:decimal(5,2)"`
	IsWeightBased           bool             `gorm:"not null;default:false"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductCatalog is the read-only port to product reference data
type ProductCatalog interface {
	// GetProduct loads a single product; NOT_FOUND when the id is unknown
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	// GetProducts loads the given products keyed by id. Unknown ids are
	// simply absent from the result; callers decide whether that is fatal.
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
}
