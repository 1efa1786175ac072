package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appret "github.com/cafepos/backend/internal/application/returns"
)

// RedisNotifier publishes return summaries on a pub/sub channel that
// front-of-house displays and the shift dashboard subscribe to.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// channelMessage is the wire shape on the notification channel
type channelMessage struct {
	Kind    string                    `json:"kind"` // return_processed, return_undone
	Summary string                    `json:"summary"`
	Payload appret.ReturnNotification `json:"payload"`
	SentAt  time.Time                 `json:"sent_at"`
}

// NewRedisNotifier creates a notifier over an existing redis client.
// The caller keeps ownership of the client.
func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// NotifyReturnProcessed announces a committed return
func (n *RedisNotifier) NotifyReturnProcessed(ctx context.Context, notification appret.ReturnNotification) error {
	return n.publish(ctx, "return_processed", ProcessedSummary(notification), notification)
}

// NotifyReturnUndone announces that a return was rolled back to stock
func (n *RedisNotifier) NotifyReturnUndone(ctx context.Context, notification appret.ReturnNotification) error {
	return n.publish(ctx, "return_undone", UndoneSummary(notification), notification)
}

func (n *RedisNotifier) publish(ctx context.Context, kind, summary string, payload appret.ReturnNotification) error {
	data, err := json.Marshal(channelMessage{
		Kind:    kind,
		Summary: summary,
		Payload: payload,
		SentAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		n.logger.Error("failed to publish return notification",
			zap.String("kind", kind),
			zap.String("channel", n.channel),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	n.logger.Debug("published return notification",
		zap.String("kind", kind),
		zap.String("channel", n.channel),
	)
	return nil
}

var _ appret.Notifier = (*RedisNotifier)(nil)
