package locking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/cafepos/backend/internal/infrastructure/config"
)

// RedisProductLocker serializes product writers across instances with
// one redislock entry per product id. The TTL bounds how long a crashed
// holder can block everyone else.
type RedisProductLocker struct {
	locker        *redislock.Client
	ttl           time.Duration
	retryInterval time.Duration
	maxRetries    int
	logger        *zap.Logger
}

// NewRedisProductLocker creates a locker over an existing redis client
func NewRedisProductLocker(client *redis.Client, cfg config.LockingConfig, logger *zap.Logger) *RedisProductLocker {
	return &RedisProductLocker{
		locker:        redislock.New(client),
		ttl:           cfg.TTL,
		retryInterval: cfg.RetryInterval,
		maxRetries:    cfg.MaxRetries,
		logger:        logger,
	}
}

// Acquire locks every given product, deduplicated and in stable order.
// Contention past the retry budget comes back as a retryable
// TRANSACTION_FAILURE domain error.
func (l *RedisProductLocker) Acquire(ctx context.Context, productIDs []uuid.UUID) (shared.ProductLock, error) {
	ids := sortedUniqueIDs(productIDs)

	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(
			redislock.LinearBackoff(l.retryInterval),
			l.maxRetries,
		),
	}

	held := make([]*redislock.Lock, 0, len(ids))
	for _, id := range ids {
		lock, err := l.locker.Obtain(ctx, productLockKey(id), l.ttl, opts)
		if err != nil {
			l.releaseAll(ctx, held)
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, shared.NewDomainError(shared.CodeTransactionFailure,
					fmt.Sprintf("Product %s is locked by another operation", id))
			}
			l.logger.Error("failed to obtain product lock",
				zap.String("product_id", id.String()),
				zap.Error(err),
			)
			return nil, shared.NewDomainError(shared.CodeTransactionFailure,
				"Lock service unavailable")
		}
		held = append(held, lock)
	}

	return &redisProductLock{locks: held, logger: l.logger}, nil
}

func (l *RedisProductLocker) releaseAll(ctx context.Context, locks []*redislock.Lock) {
	for i := len(locks) - 1; i >= 0; i-- {
		if err := locks[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release product lock", zap.Error(err))
		}
	}
}

func productLockKey(id uuid.UUID) string {
	return "lock:product:" + id.String()
}

type redisProductLock struct {
	locks    []*redislock.Lock
	logger   *zap.Logger
	released atomic.Bool
}

// Release frees every held lock in reverse order. An expired lock
// (ErrLockNotHeld) is not an error here: the TTL already freed it.
func (p *redisProductLock) Release(ctx context.Context) error {
	if !p.released.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	for i := len(p.locks) - 1; i >= 0; i-- {
		if err := p.locks[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			p.logger.Warn("failed to release product lock", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

var _ shared.ProductLocker = (*RedisProductLocker)(nil)
var _ shared.ProductLock = (*redisProductLock)(nil)
