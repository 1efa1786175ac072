package returns

import (
	"fmt"
	"time"

	"github.com/cafepos/backend/internal/domain/catalog"
	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultReturnPercentage applies when neither the caller nor the product
// catalog specifies one
const DefaultReturnPercentage = 20

var oneHundred = decimal.NewFromInt(100)

// EffectivePercentage resolves the return percentage for one batch:
// a caller override wins over the product default, which wins over the
// system default. The resolved value must lie in [0, 100] whatever its
// source; a product row seeded with a bad default fails here rather than
// producing a negative return value.
func EffectivePercentage(override, productDefault *decimal.Decimal) (decimal.Decimal, error) {
	percentage := decimal.NewFromInt(DefaultReturnPercentage)
	if productDefault != nil {
		percentage = *productDefault
	}
	if override != nil {
		percentage = *override
	}

	if percentage.IsNegative() || percentage.GreaterThan(oneHundred) {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Return percentage must be between 0 and 100, got %s", percentage.String()))
	}
	return percentage, nil
}

// ReturnValuePerUnit computes the refund for one unit, rounded to cents.
// The basis is the original price, not the sale price.
func ReturnValuePerUnit(originalPrice, percentage decimal.Decimal) decimal.Decimal {
	return originalPrice.Mul(percentage).Div(oneHundred).Round(2)
}

// BuildLineItem values one returned batch against its product reference.
// The batch's age is frozen at return time so undo can rebuild it with the
// same shelf age.
func BuildLineItem(batch *inventory.Batch, product *catalog.Product, override *decimal.Decimal, today time.Time) (ReturnLineItem, error) {
	if batch == nil {
		return ReturnLineItem{}, shared.NewDomainError(shared.CodeValidation, "Batch is required")
	}
	if product == nil {
		return ReturnLineItem{}, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Product %s not found for batch %s", batch.ProductID, batch.ID))
	}

	percentage, err := EffectivePercentage(override, product.DefaultReturnPercentage)
	if err != nil {
		return ReturnLineItem{}, err
	}

	perUnit := ReturnValuePerUnit(product.OriginalPrice, percentage)
	total := product.OriginalPrice.Mul(percentage).Div(oneHundred).Mul(batch.Quantity).Round(2)

	return ReturnLineItem{
		ID:                 uuid.New(),
		ProductID:          batch.ProductID,
		ProductName:        product.Name,
		Quantity:           batch.Quantity,
		AgeAtReturn:        batch.AgeOn(today),
		OriginalPrice:      product.OriginalPrice,
		SalePrice:          product.SalePrice,
		ReturnPercentage:   percentage,
		ReturnValuePerUnit: perUnit,
		TotalReturnValue:   total,
	}, nil
}

// RebuildBatch reconstructs the batch a line item was taken from. The new
// batch gets a fresh ID and a date_added of today minus the recorded age,
// which lands it in the same age category it had when returned.
func (item ReturnLineItem) RebuildBatch(today time.Time) (*inventory.Batch, error) {
	dateAdded := shared.DateOf(today).AddDate(0, 0, -item.AgeAtReturn)
	return inventory.NewBatch(item.ProductID, item.Quantity, dateAdded, today)
}
