// Package cache owns the shared redis client. The product locker and
// the pub/sub notifier ride on the same client; deployments running the
// local locker and log notifier never open a connection.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cafepos/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// NewRedisClient opens a client and verifies the connection before
// handing it out
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
