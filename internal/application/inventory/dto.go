package inventory

import (
	"time"

	"github.com/cafepos/backend/internal/domain/catalog"
	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for batch dates
const DateLayout = "2006-01-02"

// BatchResponse represents a batch in API responses. Age fields are derived
// from the clock at response time, never stored.
type BatchResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	DateAdded   string          `json:"date_added"`
	AgeDays     int             `json:"age_days"`
	AgeCategory string          `json:"age_category"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToBatchResponse converts a batch to its response form as of the given day
func ToBatchResponse(batch *inventory.Batch, today time.Time) BatchResponse {
	return BatchResponse{
		ID:          batch.ID,
		ProductID:   batch.ProductID,
		Quantity:    batch.Quantity,
		DateAdded:   batch.DateAdded.Format(DateLayout),
		AgeDays:     batch.AgeOn(today),
		AgeCategory: batch.CategoryOn(today).String(),
		UpdatedAt:   batch.UpdatedAt,
	}
}

// ToBatchResponses converts a batch slice as of the given day
func ToBatchResponses(batches []*inventory.Batch, today time.Time) []BatchResponse {
	responses := make([]BatchResponse, len(batches))
	for i, batch := range batches {
		responses[i] = ToBatchResponse(batch, today)
	}
	return responses
}

// ActiveBatchResponse is a batch joined with its product's pricing
// snapshot, the shape the returns workflow browses when picking candidates
type ActiveBatchResponse struct {
	BatchResponse
	ProductName             string           `json:"product_name"`
	OriginalPrice           decimal.Decimal  `json:"original_price"`
	SalePrice               decimal.Decimal  `json:"sale_price"`
	DefaultReturnPercentage *decimal.Decimal `json:"default_return_percentage,omitempty"`
	IsWeightBased           bool             `json:"is_weight_based"`
}

// ToActiveBatchResponse joins one batch with its product reference. A nil
// product leaves the snapshot fields zeroed; a batch can precede catalog
// replication of its product.
func ToActiveBatchResponse(batch *inventory.Batch, product *catalog.Product, today time.Time) ActiveBatchResponse {
	response := ActiveBatchResponse{BatchResponse: ToBatchResponse(batch, today)}
	if product != nil {
		response.ProductName = product.Name
		response.OriginalPrice = product.OriginalPrice
		response.SalePrice = product.SalePrice
		response.DefaultReturnPercentage = product.DefaultReturnPercentage
		response.IsWeightBased = product.IsWeightBased
	}
	return response
}

// CreateBatchRequest represents a request to create a batch
type CreateBatchRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	// DateAdded defaults to today when omitted
	DateAdded string `json:"date_added" binding:"omitempty,datetime=2006-01-02"`
}

// SetQuantityRequest represents a request to overwrite a batch quantity
type SetQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// BatchListFilter represents filter options for batch listings
type BatchListFilter struct {
	AgeCategory string `form:"age_category" binding:"omitempty,oneof=fresh medium old"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// CleanupResponse reports how many retired batch rows were swept
type CleanupResponse struct {
	BatchesRemoved int64 `json:"batches_removed"`
}

// DeductStockRequest represents a request to deduct stock for a sale
type DeductStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// BatchDeductionResponse reports one batch's contribution to a deduction
type BatchDeductionResponse struct {
	BatchID          uuid.UUID       `json:"batch_id"`
	Deducted         decimal.Decimal `json:"deducted"`
	RemainingInBatch decimal.Decimal `json:"remaining_in_batch"`
	FullyConsumed    bool            `json:"fully_consumed"`
}

// DeductStockResponse represents the result of a committed deduction
type DeductStockResponse struct {
	ProductID      uuid.UUID                `json:"product_id"`
	Requested      decimal.Decimal          `json:"requested"`
	TotalDeducted  decimal.Decimal          `json:"total_deducted"`
	RemainingStock decimal.Decimal          `json:"remaining_stock"`
	Deductions     []BatchDeductionResponse `json:"deductions"`
}

// StockSummaryResponse is the read-side projection of one product's stock
type StockSummaryResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	TotalStock     decimal.Decimal `json:"total_stock"`
	ActiveBatches  int             `json:"active_batches"`
	FreshQuantity  decimal.Decimal `json:"fresh_quantity"`
	MediumQuantity decimal.Decimal `json:"medium_quantity"`
	OldQuantity    decimal.Decimal `json:"old_quantity"`
}
