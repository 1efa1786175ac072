package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newConsumptionServiceForTest(repo *MockBatchRepository) (*ConsumptionService, *stubLocker) {
	locker := &stubLocker{}
	return NewConsumptionService(repo, NewNoOpTransactionScope(repo), locker), locker
}

func TestConsumptionServiceDeductStock(t *testing.T) {
	productID := uuid.New()

	t.Run("deducts oldest first across batches", func(t *testing.T) {
		repo := new(MockBatchRepository)
		service, locker := newConsumptionServiceForTest(repo)

		older := newTestBatch(productID, 10, 3)
		newer := newTestBatch(productID, 5, 0)

		repo.On("SumActiveQuantity", mock.Anything, productID).Return(decimal.NewFromInt(15), nil)
		repo.On("FindActiveByProduct", mock.Anything, productID).Return([]*inventory.Batch{newer, older}, nil)
		repo.On("SaveAll", mock.Anything, mock.MatchedBy(func(batches []*inventory.Batch) bool {
			return len(batches) == 2
		})).Return(nil)

		response, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(12),
		})
		require.NoError(t, err)

		assert.True(t, older.Quantity.IsZero())
		assert.True(t, newer.Quantity.Equal(decimal.NewFromInt(3)))

		require.Len(t, response.Deductions, 2)
		assert.Equal(t, older.ID, response.Deductions[0].BatchID)
		assert.True(t, response.Deductions[0].Deducted.Equal(decimal.NewFromInt(10)))
		assert.True(t, response.Deductions[0].FullyConsumed)
		assert.Equal(t, newer.ID, response.Deductions[1].BatchID)
		assert.True(t, response.Deductions[1].Deducted.Equal(decimal.NewFromInt(2)))
		assert.True(t, response.TotalDeducted.Equal(decimal.NewFromInt(12)))
		assert.True(t, response.RemainingStock.Equal(decimal.NewFromInt(3)))

		require.Len(t, locker.acquired, 1)
		assert.Equal(t, []uuid.UUID{productID}, locker.acquired[0])
		repo.AssertExpectations(t)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		repo := new(MockBatchRepository)
		service, _ := newConsumptionServiceForTest(repo)

		_, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.Zero,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		repo.AssertNotCalled(t, "SumActiveQuantity", mock.Anything, mock.Anything)
	})

	t.Run("fails fast when the total is short", func(t *testing.T) {
		repo := new(MockBatchRepository)
		service, locker := newConsumptionServiceForTest(repo)

		repo.On("SumActiveQuantity", mock.Anything, productID).Return(decimal.NewFromInt(3), nil)

		_, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(4),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Empty(t, locker.acquired, "no lock taken for a doomed request")
		repo.AssertNotCalled(t, "FindActiveByProduct", mock.Anything, mock.Anything)
	})

	t.Run("no active batches fails with insufficient stock", func(t *testing.T) {
		repo := new(MockBatchRepository)
		service, _ := newConsumptionServiceForTest(repo)

		repo.On("SumActiveQuantity", mock.Anything, productID).Return(decimal.Zero, nil)

		_, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(1),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("stale precheck is caught inside the transaction", func(t *testing.T) {
		repo := new(MockBatchRepository)
		service, _ := newConsumptionServiceForTest(repo)

		batch := newTestBatch(productID, 5, 0)
		// The sum says 20 but by the time the lock is held only 5 remain.
		repo.On("SumActiveQuantity", mock.Anything, productID).Return(decimal.NewFromInt(20), nil)
		repo.On("FindActiveByProduct", mock.Anything, productID).Return([]*inventory.Batch{batch}, nil)

		_, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(12),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.True(t, batch.Quantity.Equal(decimal.NewFromInt(5)), "no partial mutation")
		repo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("lock failure propagates", func(t *testing.T) {
		repo := new(MockBatchRepository)
		locker := &stubLocker{err: shared.NewDomainError(shared.CodeTransactionFailure, "Could not obtain product lock")}
		service := NewConsumptionService(repo, NewNoOpTransactionScope(repo), locker)

		repo.On("SumActiveQuantity", mock.Anything, productID).Return(decimal.NewFromInt(10), nil)

		_, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(1),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrTransactionFailure))
	})

	t.Run("store failure becomes transaction failure", func(t *testing.T) {
		repo := new(MockBatchRepository)
		service, _ := newConsumptionServiceForTest(repo)

		repo.On("SumActiveQuantity", mock.Anything, productID).Return(decimal.NewFromInt(10), nil)
		repo.On("FindActiveByProduct", mock.Anything, productID).Return([]*inventory.Batch{newTestBatch(productID, 10, 0)}, nil)
		repo.On("SaveAll", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := service.DeductStock(context.Background(), DeductStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(4),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrTransactionFailure))
	})
}
