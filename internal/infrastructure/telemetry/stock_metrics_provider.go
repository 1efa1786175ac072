// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the batches table directly for aggregated age statistics.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// ageBandCase buckets batches into age categories on the database side.
// The boundaries mirror the classifier: fresh 0-2 days, medium 3-7, old 8+.
const ageBandCase = `CASE
	WHEN CURRENT_DATE - date_added <= 2 THEN 'fresh'
	WHEN CURRENT_DATE - date_added <= 7 THEN 'medium'
	ELSE 'old'
END`

// GetStockAgeProfile returns active batch counts and quantities per age category.
// Every category is present in the result, zero filled when empty, so gauges
// reset correctly once a band drains.
func (p *GormStockMetricsProvider) GetStockAgeProfile(ctx context.Context) ([]AgeBandStats, error) {
	type row struct {
		AgeCategory string          `gorm:"column:age_category"`
		Batches     int64           `gorm:"column:batches"`
		Quantity    decimal.Decimal `gorm:"column:quantity"`
	}

	var rows []row
	err := p.db.WithContext(ctx).
		Table("batches").
		Select(ageBandCase + " AS age_category, COUNT(*) AS batches, COALESCE(SUM(quantity), 0) AS quantity").
		Where("quantity > 0").
		Group("age_category").
		Find(&rows).Error

	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]row, len(rows))
	for _, r := range rows {
		byCategory[r.AgeCategory] = r
	}

	profile := make([]AgeBandStats, 0, 3)
	for _, category := range []string{"fresh", "medium", "old"} {
		r := byCategory[category]
		profile = append(profile, AgeBandStats{
			Category: category,
			Batches:  r.Batches,
			Quantity: r.Quantity,
		})
	}

	return profile, nil
}
