package returns

import (
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeReturn = "Return"

// Event type constants
const (
	EventTypeReturnProcessed = "return_processed"
	EventTypeReturnUndone    = "return_undone"
)

// ReturnProcessedEvent is published after a return transaction commits
type ReturnProcessedEvent struct {
	shared.BaseDomainEvent
	ReturnID      uuid.UUID       `json:"return_id"`
	ProcessedBy   string          `json:"processed_by"`
	TotalBatches  int             `json:"total_batches"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// NewReturnProcessedEvent creates a new ReturnProcessedEvent
func NewReturnProcessedEvent(ret *Return) *ReturnProcessedEvent {
	return &ReturnProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnProcessed, AggregateTypeReturn, ret.ID),
		ReturnID:        ret.ID,
		ProcessedBy:     ret.ProcessedBy,
		TotalBatches:    ret.TotalBatches,
		TotalQuantity:   ret.TotalQuantity,
		TotalValue:      ret.TotalValue,
	}
}

// ReturnUndoneEvent is published after an undo removes the return record
// and its batches are back in stock
type ReturnUndoneEvent struct {
	shared.BaseDomainEvent
	ReturnID         uuid.UUID       `json:"return_id"`
	UndoneBy         string          `json:"undone_by"`
	BatchesRecreated int             `json:"batches_recreated"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

// NewReturnUndoneEvent creates a new ReturnUndoneEvent
func NewReturnUndoneEvent(ret *Return, undoneBy string) *ReturnUndoneEvent {
	return &ReturnUndoneEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReturnUndone, AggregateTypeReturn, ret.ID),
		ReturnID:         ret.ID,
		UndoneBy:         undoneBy,
		BatchesRecreated: len(ret.LineItems),
		TotalQuantity:    ret.TotalQuantity,
		TotalValue:       ret.TotalValue,
	}
}
