package notification

import (
	"context"

	"go.uber.org/zap"

	appret "github.com/cafepos/backend/internal/application/returns"
)

// LogNotifier writes return summaries to the service log. The default
// sink when no pub/sub channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier writing under the notify name
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.Named("notify"),
	}
}

// NotifyReturnProcessed announces a committed return
func (n *LogNotifier) NotifyReturnProcessed(ctx context.Context, notification appret.ReturnNotification) error {
	n.logger.Info("return processed",
		zap.String("return_id", notification.ReturnID.String()),
		zap.String("actor", notification.Actor),
		zap.String("summary", ProcessedSummary(notification)),
	)
	return nil
}

// NotifyReturnUndone announces that a return was rolled back to stock
func (n *LogNotifier) NotifyReturnUndone(ctx context.Context, notification appret.ReturnNotification) error {
	n.logger.Info("return undone",
		zap.String("return_id", notification.ReturnID.String()),
		zap.String("actor", notification.Actor),
		zap.String("summary", UndoneSummary(notification)),
	)
	return nil
}

var _ appret.Notifier = (*LogNotifier)(nil)
