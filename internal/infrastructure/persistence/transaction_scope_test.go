package persistence

import (
	"context"
	"testing"
	"time"

	appinv "github.com/cafepos/backend/internal/application/inventory"
	appret "github.com/cafepos/backend/internal/application/returns"
	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("commits when the function succeeds", func(t *testing.T) {
		db := newSQLiteTestDB(t)
		createBatchTable(t, db)
		scope := NewGormTransactionScope(db)
		ctx := context.Background()

		batch := newTestBatch(t, uuid.New(), "10", today, today)

		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			return repos.BatchRepo().Create(ctx, batch)
		})
		require.NoError(t, err)

		found, err := NewGormBatchRepository(db).FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.NotNil(t, found)
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		db := newSQLiteTestDB(t)
		createBatchTable(t, db)
		scope := NewGormTransactionScope(db)
		ctx := context.Background()

		batch := newTestBatch(t, uuid.New(), "10", today, today)

		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			if err := repos.BatchRepo().Create(ctx, batch); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, err)

		found, err := NewGormBatchRepository(db).FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("partial multi-batch updates do not survive a failure", func(t *testing.T) {
		db := newSQLiteTestDB(t)
		createBatchTable(t, db)
		scope := NewGormTransactionScope(db)
		ctx := context.Background()

		repo := NewGormBatchRepository(db)
		productID := uuid.New()
		first := newTestBatch(t, productID, "5", today.AddDate(0, 0, -2), today)
		second := newTestBatch(t, productID, "5", today.AddDate(0, 0, -1), today)
		require.NoError(t, repo.CreateAll(ctx, []*inventory.Batch{first, second}))

		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			first.Deduct(decimal.RequireFromString("5"))
			if err := repos.BatchRepo().Save(ctx, first); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, err)

		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.Quantity.Equal(decimal.RequireFromString("5")),
			"quantity %s", found.Quantity)
	})
}

func TestGormReturnsTransactionScope_Execute(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	processedAt := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("commits batch writes and the return record together", func(t *testing.T) {
		db := newSQLiteTestDB(t)
		createBatchTable(t, db)
		createReturnTables(t, db)
		scope := NewGormReturnsTransactionScope(db)
		ctx := context.Background()

		batchRepo := NewGormBatchRepository(db)
		batch := newTestBatch(t, uuid.New(), "3", today.AddDate(0, 0, -4), today)
		require.NoError(t, batchRepo.Create(ctx, batch))

		ret := newTestReturn(t, "maria", processedAt, newTestLineItem("Croissant", "3", "6.00"))

		err := scope.Execute(ctx, func(repos appret.TransactionalRepositories) error {
			batch.Deduct(decimal.RequireFromString("3"))
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}
			return repos.ReturnRepo().Create(ctx, ret)
		})
		require.NoError(t, err)

		committed, err := NewGormReturnRepository(db).FindByID(ctx, ret.ID)
		require.NoError(t, err)
		require.NotNil(t, committed)

		drained, err := batchRepo.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		require.NotNil(t, drained)
		assert.True(t, drained.Quantity.IsZero(), "quantity %s", drained.Quantity)
	})

	t.Run("a failure after the batch write leaves nothing behind", func(t *testing.T) {
		db := newSQLiteTestDB(t)
		createBatchTable(t, db)
		createReturnTables(t, db)
		scope := NewGormReturnsTransactionScope(db)
		ctx := context.Background()

		batchRepo := NewGormBatchRepository(db)
		batch := newTestBatch(t, uuid.New(), "3", today.AddDate(0, 0, -4), today)
		require.NoError(t, batchRepo.Create(ctx, batch))

		ret := newTestReturn(t, "maria", processedAt, newTestLineItem("Croissant", "3", "6.00"))

		err := scope.Execute(ctx, func(repos appret.TransactionalRepositories) error {
			batch.Deduct(decimal.RequireFromString("3"))
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}
			if err := repos.ReturnRepo().Create(ctx, ret); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, err)

		missing, err := NewGormReturnRepository(db).FindByID(ctx, ret.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		untouched, err := batchRepo.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		require.NotNil(t, untouched)
		assert.True(t, untouched.Quantity.Equal(decimal.RequireFromString("3")),
			"quantity %s", untouched.Quantity)
	})
}
