package inventory

import (
	"fmt"
	"time"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch represents a dated lot of stock for one product. date_added is the
// FIFO sort key and never changes after creation; all other mutation goes
// through the Batch Store.
type Batch struct {
	shared.BaseEntity
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index:idx_batches_fifo,priority:1"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	DateAdded time.Time       `gorm:"type:date;not null;index:idx_batches_fifo,priority:2"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "batches"
}

// NewBatch creates a new batch. Quantity must be positive: an empty lot is a
// caller mistake, not a silent no-op. dateAdded is normalized to a calendar
// date and may not lie after today.
func NewBatch(productID uuid.UUID, quantity decimal.Decimal, dateAdded, today time.Time) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Batch quantity must be positive, got %s", quantity.String()))
	}
	date := shared.DateOf(dateAdded)
	if date.After(shared.DateOf(today)) {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Batch date %s lies in the future", date.Format("2006-01-02")))
	}

	return &Batch{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Quantity:   quantity,
		DateAdded:  date,
	}, nil
}

// IsActive reports whether the batch still participates in consumption and
// return candidate sets. quantity > 0 is the canonical predicate; a zeroed
// batch is retired even while its row still exists.
func (b *Batch) IsActive() bool {
	return b.Quantity.IsPositive()
}

// SetQuantity overwrites the batch quantity. Negative values are rejected;
// zero retires the batch.
func (b *Batch) SetQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Batch quantity cannot be negative, got %s", quantity.String()))
	}
	b.Quantity = quantity
	b.Touch()
	return nil
}

// Deduct reduces the batch quantity and returns the amount actually taken,
// which may be less than requested when the batch runs out.
func (b *Batch) Deduct(quantity decimal.Decimal) decimal.Decimal {
	deducted := decimal.Min(quantity, b.Quantity)
	b.Quantity = b.Quantity.Sub(deducted)
	b.Touch()
	return deducted
}

// AgeOn returns the batch age in whole days on the given date. Time of day
// never contributes; a batch added earlier today is 0 days old. Negative
// differences clamp to 0.
func (b *Batch) AgeOn(today time.Time) int {
	age := shared.DaysBetween(b.DateAdded, today)
	if age < 0 {
		return 0
	}
	return age
}

// CategoryOn returns the batch's age category on the given date
func (b *Batch) CategoryOn(today time.Time) AgeCategory {
	return CategoryForAge(b.AgeOn(today))
}
