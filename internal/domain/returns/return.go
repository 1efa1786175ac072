// Package returns holds the return transaction aggregate and its valuation
// rules. A Return is the durable record of one processed return: the line
// items snapshot everything needed to value the return and to undo it later,
// so the record stays meaningful after the source batches are gone.
package returns

import (
	"fmt"
	"time"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return is the aggregate root of one committed return transaction
type Return struct {
	shared.BaseAggregateRoot
	ReturnDate    time.Time        `gorm:"type:date;not null" json:"return_date"`
	ProcessedBy   string           `gorm:"type:varchar(120);not null" json:"processed_by"`
	ProcessedAt   time.Time        `gorm:"not null" json:"processed_at"`
	TotalBatches  int              `gorm:"not null" json:"total_batches"`
	TotalQuantity decimal.Decimal  `gorm:"type:decimal(12,3);not null" json:"total_quantity"`
	TotalValue    decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total_value"`
	LineItems     []ReturnLineItem `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE" json:"line_items"`
}

// TableName returns the table name for GORM
func (Return) TableName() string {
	return "returns"
}

// ReturnLineItem snapshots one returned batch. product_name and the prices
// are copied at processing time; age_at_return is what undo uses to rebuild
// the batch with its shelf age intact.
type ReturnLineItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReturnID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName        string          `gorm:"type:varchar(200);not null" json:"product_name"`
	Quantity           decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	AgeAtReturn        int             `gorm:"not null" json:"age_at_return"`
	OriginalPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"original_price"`
	SalePrice          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	ReturnPercentage   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"return_percentage"`
	ReturnValuePerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"return_value_per_unit"`
	TotalReturnValue   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_return_value"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TableName returns the table name for GORM
func (ReturnLineItem) TableName() string {
	return "return_line_items"
}

// NewReturn assembles a return transaction from valued line items. Totals
// are derived here and nowhere else, which keeps the aggregate invariant
// total_value == sum of line totals by construction.
func NewReturn(processedBy string, lineItems []ReturnLineItem, now time.Time) (*Return, error) {
	if processedBy == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Processed by is required")
	}
	if len(lineItems) == 0 {
		return nil, shared.NewDomainError(shared.CodeNothingToReturn, "Return has no line items")
	}

	ret := &Return{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnDate:        shared.DateOf(now),
		ProcessedBy:       processedBy,
		ProcessedAt:       now,
		TotalQuantity:     decimal.Zero,
		TotalValue:        decimal.Zero,
	}

	for i := range lineItems {
		lineItems[i].ReturnID = ret.ID
		ret.TotalQuantity = ret.TotalQuantity.Add(lineItems[i].Quantity)
		ret.TotalValue = ret.TotalValue.Add(lineItems[i].TotalReturnValue)
	}
	ret.LineItems = lineItems
	ret.TotalBatches = len(lineItems)

	ret.AddDomainEvent(NewReturnProcessedEvent(ret))

	return ret, nil
}

// MarkUndone records the undo on the aggregate before its row is removed,
// so the event can be published once the deletion commits.
func (r *Return) MarkUndone(undoneBy string) {
	r.AddDomainEvent(NewReturnUndoneEvent(r, undoneBy))
}

// Validate re-checks the totals invariant, used when a record loaded from
// the store is about to be undone.
func (r *Return) Validate() error {
	if len(r.LineItems) == 0 {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Return %s has no line items", r.ID))
	}
	if r.TotalBatches != len(r.LineItems) {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Return %s counts %d batches but has %d line items",
				r.ID, r.TotalBatches, len(r.LineItems)))
	}

	sum := decimal.Zero
	for _, item := range r.LineItems {
		sum = sum.Add(item.TotalReturnValue)
	}
	if !sum.Equal(r.TotalValue) {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Return %s total value %s does not match line items sum %s",
				r.ID, r.TotalValue.String(), sum.String()))
	}
	return nil
}
