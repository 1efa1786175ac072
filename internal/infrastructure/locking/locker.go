// Package locking serializes writers per product. Deduction, return
// processing and undo each read a product's batch set, compute deltas
// and write them back; the locker keeps two such read-modify-write
// cycles from interleaving on the same product.
package locking

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cafepos/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cafepos/backend/internal/domain/shared"
)

// NewProductLocker selects the locker implementation for the configured
// mode. No silent fallback between modes: local locks do not serialize
// across nodes, so swapping one in quietly would corrupt stock under a
// multi-instance deployment.
func NewProductLocker(cfg config.LockingConfig, client *redis.Client, logger *zap.Logger) (shared.ProductLocker, error) {
	switch cfg.Mode {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("locking mode redis requires a redis client")
		}
		return NewRedisProductLocker(client, cfg, logger), nil
	case "local", "":
		logger.Info("using in-process product locks, single instance only")
		return NewLocalProductLocker(), nil
	default:
		return nil, fmt.Errorf("unknown locking mode %q", cfg.Mode)
	}
}

// sortedUniqueIDs returns the ids deduplicated and in a stable order.
// Every caller locking a set of products walks it in this order, which
// rules out lock-order deadlock between concurrent multi-product
// operations.
func sortedUniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i][:], result[j][:]) < 0
	})
	return result
}
