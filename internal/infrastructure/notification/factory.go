package notification

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appret "github.com/cafepos/backend/internal/application/returns"
	"github.com/cafepos/backend/internal/infrastructure/config"
)

// NewNotifier selects the notifier for the configured mode
func NewNotifier(cfg config.NotificationConfig, client *redis.Client, logger *zap.Logger) (appret.Notifier, error) {
	switch cfg.Mode {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("notification mode redis requires a redis client")
		}
		if cfg.Channel == "" {
			return nil, fmt.Errorf("notification mode redis requires a channel")
		}
		return NewRedisNotifier(client, cfg.Channel, logger), nil
	case "log", "":
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notification mode %q", cfg.Mode)
	}
}
