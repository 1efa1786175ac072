package returns

import (
	"time"

	"github.com/cafepos/backend/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessReturnRequest represents a request to commit a return. The
// candidate set is the batch selection the caller worked from; batches not
// marked "keep" are the ones coming back to the supplier.
type ProcessReturnRequest struct {
	CandidateBatchIDs []uuid.UUID `json:"candidate_batch_ids" binding:"required,min=1"`
	KeepBatchIDs      []uuid.UUID `json:"keep_batch_ids"`
	// PercentageOverrides replaces the product's return percentage for
	// specific batches, for this transaction only
	PercentageOverrides map[uuid.UUID]decimal.Decimal `json:"percentage_overrides"`
}

// ReturnLineItemResponse represents one returned batch in API responses
type ReturnLineItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Quantity           decimal.Decimal `json:"quantity"`
	AgeAtReturn        int             `json:"age_at_return"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	SalePrice          decimal.Decimal `json:"sale_price"`
	ReturnPercentage   decimal.Decimal `json:"return_percentage"`
	ReturnValuePerUnit decimal.Decimal `json:"return_value_per_unit"`
	TotalReturnValue   decimal.Decimal `json:"total_return_value"`
}

// ReturnResponse represents a return transaction in API responses
type ReturnResponse struct {
	ID            uuid.UUID                `json:"id"`
	ReturnDate    string                   `json:"return_date"`
	ProcessedBy   string                   `json:"processed_by"`
	ProcessedAt   time.Time                `json:"processed_at"`
	TotalBatches  int                      `json:"total_batches"`
	TotalQuantity decimal.Decimal          `json:"total_quantity"`
	TotalValue    decimal.Decimal          `json:"total_value"`
	LineItems     []ReturnLineItemResponse `json:"line_items"`
}

// ProcessReturnResponse carries the committed return plus a warning when a
// best-effort side effect failed after the commit
type ProcessReturnResponse struct {
	Return  ReturnResponse `json:"return"`
	Warning string         `json:"warning,omitempty"`
}

// UndoReturnResponse represents the result of undoing a return
type UndoReturnResponse struct {
	ReturnID          uuid.UUID       `json:"return_id"`
	UndoneBy          string          `json:"undone_by"`
	BatchesRecreated  int             `json:"batches_recreated"`
	RecreatedBatchIDs []uuid.UUID     `json:"recreated_batch_ids"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	Warning           string          `json:"warning,omitempty"`
}

// ReturnListFilter represents filter options for the returns listing
type ReturnListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ReturnListResponse is a page of return transactions
type ReturnListResponse struct {
	Returns  []ReturnResponse `json:"returns"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ToReturnLineItemResponse converts a line item to its response form
func ToReturnLineItemResponse(item returns.ReturnLineItem) ReturnLineItemResponse {
	return ReturnLineItemResponse{
		ID:                 item.ID,
		ProductID:          item.ProductID,
		ProductName:        item.ProductName,
		Quantity:           item.Quantity,
		AgeAtReturn:        item.AgeAtReturn,
		OriginalPrice:      item.OriginalPrice,
		SalePrice:          item.SalePrice,
		ReturnPercentage:   item.ReturnPercentage,
		ReturnValuePerUnit: item.ReturnValuePerUnit,
		TotalReturnValue:   item.TotalReturnValue,
	}
}

// ToReturnResponse converts a return to its response form
func ToReturnResponse(ret *returns.Return) ReturnResponse {
	lineItems := make([]ReturnLineItemResponse, len(ret.LineItems))
	for i, item := range ret.LineItems {
		lineItems[i] = ToReturnLineItemResponse(item)
	}
	return ReturnResponse{
		ID:            ret.ID,
		ReturnDate:    ret.ReturnDate.Format("2006-01-02"),
		ProcessedBy:   ret.ProcessedBy,
		ProcessedAt:   ret.ProcessedAt,
		TotalBatches:  ret.TotalBatches,
		TotalQuantity: ret.TotalQuantity,
		TotalValue:    ret.TotalValue,
		LineItems:     lineItems,
	}
}
