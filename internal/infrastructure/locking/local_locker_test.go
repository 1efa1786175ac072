package locking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/cafepos/backend/internal/infrastructure/config"
)

func TestLocalProductLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalProductLocker()
	productID := uuid.New()

	lock, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)

	// Second caller cannot get the same product while it is held.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, []uuid.UUID{productID})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTransactionFailure)

	require.NoError(t, lock.Release(context.Background()))

	// Released, so the product is free again.
	lock2, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)
	require.NoError(t, lock2.Release(context.Background()))
}

func TestLocalProductLocker_ErrorCarriesTransactionFailureCode(t *testing.T) {
	locker := NewLocalProductLocker()
	productID := uuid.New()

	lock, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)
	defer func() { _ = lock.Release(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, []uuid.UUID{productID})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeTransactionFailure, domainErr.Code)
}

func TestLocalProductLocker_DifferentProductsIndependent(t *testing.T) {
	locker := NewLocalProductLocker()

	lock1, err := locker.Acquire(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	defer func() { _ = lock1.Release(context.Background()) }()

	// A different product is not affected by the held lock.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	lock2, err := locker.Acquire(ctx, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	require.NoError(t, lock2.Release(context.Background()))
}

func TestLocalProductLocker_WaiterProceedsAfterRelease(t *testing.T) {
	locker := NewLocalProductLocker()
	productID := uuid.New()

	lock, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		waiter, err := locker.Acquire(ctx, []uuid.UUID{productID})
		if err != nil {
			done <- err
			return
		}
		done <- waiter.Release(context.Background())
	}()

	// The waiter must still be blocked while the lock is held.
	select {
	case err := <-done:
		t.Fatalf("waiter finished while lock was held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, lock.Release(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestLocalProductLocker_OppositeOrderSetsDoNotDeadlock(t *testing.T) {
	locker := NewLocalProductLocker()
	p1 := uuid.New()
	p2 := uuid.New()

	// Two writers lock the same pair in opposite order, repeatedly.
	// Ordered acquisition inside the locker keeps this deadlock free.
	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)

	run := func(ids []uuid.UUID) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			lock, err := locker.Acquire(ctx, ids)
			cancel()
			if !assert.NoError(t, err) {
				return
			}
			_ = lock.Release(context.Background())
		}
	}

	go run([]uuid.UUID{p1, p2})
	go run([]uuid.UUID{p2, p1})

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(30 * time.Second):
		t.Fatal("lockers deadlocked")
	}
}

func TestLocalProductLocker_DuplicateIDsCollapse(t *testing.T) {
	locker := NewLocalProductLocker()
	productID := uuid.New()

	// Without deduplication the second slot write would block forever.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	lock, err := locker.Acquire(ctx, []uuid.UUID{productID, productID, productID})
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))

	lock2, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)
	require.NoError(t, lock2.Release(context.Background()))
}

func TestLocalProductLocker_ReleaseTwiceIsNoOp(t *testing.T) {
	locker := NewLocalProductLocker()
	productID := uuid.New()

	lock, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)

	require.NoError(t, lock.Release(context.Background()))
	require.NoError(t, lock.Release(context.Background()))

	// The duplicate release must not free the next holder's slot.
	holder, err := locker.Acquire(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, []uuid.UUID{productID})
	assert.ErrorIs(t, err, shared.ErrTransactionFailure)

	require.NoError(t, holder.Release(context.Background()))
}

func TestLocalProductLocker_PartialAcquisitionRollsBack(t *testing.T) {
	locker := NewLocalProductLocker()
	p1 := uuid.New()
	p2 := uuid.New()

	ids := sortedUniqueIDs([]uuid.UUID{p1, p2})

	// Hold the second product so a two-product acquire stalls halfway.
	blocker, err := locker.Acquire(context.Background(), []uuid.UUID{ids[1]})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, []uuid.UUID{p1, p2})
	require.Error(t, err)

	// The first product must have been released on the way out.
	lock, err := locker.Acquire(context.Background(), []uuid.UUID{ids[0]})
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))

	require.NoError(t, blocker.Release(context.Background()))
}

func TestSortedUniqueIDs(t *testing.T) {
	p1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	p2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	p3 := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	got := sortedUniqueIDs([]uuid.UUID{p3, p2, p1, p2, p3})
	assert.Equal(t, []uuid.UUID{p1, p2, p3}, got)

	// Same set, any input order, same walk order.
	again := sortedUniqueIDs([]uuid.UUID{p1, p3, p2})
	assert.Equal(t, got, again)

	assert.Empty(t, sortedUniqueIDs(nil))
}

func TestNewProductLocker(t *testing.T) {
	logger := zap.NewNop()

	t.Run("local mode", func(t *testing.T) {
		locker, err := NewProductLocker(config.LockingConfig{Mode: "local"}, nil, logger)
		require.NoError(t, err)
		assert.IsType(t, &LocalProductLocker{}, locker)
	})

	t.Run("empty mode defaults to local", func(t *testing.T) {
		locker, err := NewProductLocker(config.LockingConfig{}, nil, logger)
		require.NoError(t, err)
		assert.IsType(t, &LocalProductLocker{}, locker)
	})

	t.Run("redis mode without client", func(t *testing.T) {
		_, err := NewProductLocker(config.LockingConfig{Mode: "redis"}, nil, logger)
		require.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewProductLocker(config.LockingConfig{Mode: "zookeeper"}, nil, logger)
		require.Error(t, err)
	})
}
