package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnNotification is the summary pushed to the notification sink after
// a return commits or is undone
type ReturnNotification struct {
	ReturnID      uuid.UUID                `json:"return_id"`
	Actor         string                   `json:"actor"`
	TotalBatches  int                      `json:"total_batches"`
	TotalQuantity decimal.Decimal          `json:"total_quantity"`
	TotalValue    decimal.Decimal          `json:"total_value"`
	Lines         []ReturnNotificationLine `json:"lines"`
}

// ReturnNotificationLine is one product line of the summary
type ReturnNotificationLine struct {
	ProductName   string          `json:"product_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	IsWeightBased bool            `json:"is_weight_based"`
	Value         decimal.Decimal `json:"value"`
}

// Notifier delivers return summaries to staff channels. Delivery is best
// effort: a failure after the transaction committed degrades to a warning
// on the response and must never fail the operation.
type Notifier interface {
	// NotifyReturnProcessed announces a committed return
	NotifyReturnProcessed(ctx context.Context, notification ReturnNotification) error

	// NotifyReturnUndone announces that a return was rolled back to stock
	NotifyReturnUndone(ctx context.Context, notification ReturnNotification) error
}
