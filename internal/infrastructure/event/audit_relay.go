package event

import (
	"context"

	"github.com/cafepos/backend/internal/domain/returns"
	"github.com/cafepos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditRelay forwards return lifecycle events to the structured audit
// log, which the external audit collector tails. Returns move money, so
// every processed and undone return leaves an entry naming the actor
// and the totals.
type AuditRelay struct {
	logger *zap.Logger
}

// NewAuditRelay creates a relay writing to the given logger under the
// audit name
func NewAuditRelay(logger *zap.Logger) *AuditRelay {
	return &AuditRelay{
		logger: logger.Named("audit"),
	}
}

// EventTypes registers the relay for the return lifecycle
func (r *AuditRelay) EventTypes() []string {
	return []string{
		returns.EventTypeReturnProcessed,
		returns.EventTypeReturnUndone,
	}
}

// Handle writes one audit entry per event
func (r *AuditRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *returns.ReturnProcessedEvent:
		r.logger.Info("return processed",
			zap.String("event_id", e.EventID().String()),
			zap.String("return_id", e.ReturnID.String()),
			zap.String("processed_by", e.ProcessedBy),
			zap.Int("total_batches", e.TotalBatches),
			zap.String("total_quantity", e.TotalQuantity.String()),
			zap.String("total_value", e.TotalValue.String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	case *returns.ReturnUndoneEvent:
		r.logger.Info("return undone",
			zap.String("event_id", e.EventID().String()),
			zap.String("return_id", e.ReturnID.String()),
			zap.String("undone_by", e.UndoneBy),
			zap.Int("batches_recreated", e.BatchesRecreated),
			zap.String("total_quantity", e.TotalQuantity.String()),
			zap.String("total_value", e.TotalValue.String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	default:
		// Only the registered types should arrive here; anything else
		// is a wiring mistake worth surfacing.
		r.logger.Warn("unexpected event on audit relay",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
	}
	return nil
}

var _ shared.EventHandler = (*AuditRelay)(nil)
