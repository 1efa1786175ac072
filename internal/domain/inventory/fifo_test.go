package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFIFO(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	productID := uuid.New()

	t.Run("Orders oldest first", func(t *testing.T) {
		newest := createTestBatch(productID, 10, 0, today)
		middle := createTestBatch(productID, 10, 3, today)
		oldest := createTestBatch(productID, 10, 9, today)

		sorted := SortFIFO([]*Batch{newest, middle, oldest})
		assert.Equal(t, oldest.ID, sorted[0].ID)
		assert.Equal(t, middle.ID, sorted[1].ID)
		assert.Equal(t, newest.ID, sorted[2].ID)
	})

	t.Run("Breaks date ties by batch ID ascending", func(t *testing.T) {
		first := createTestBatch(productID, 10, 2, today)
		second := createTestBatch(productID, 10, 2, today)
		first.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
		second.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

		sorted := SortFIFO([]*Batch{second, first})
		assert.Equal(t, first.ID, sorted[0].ID)
		assert.Equal(t, second.ID, sorted[1].ID)
	})

	t.Run("Leaves input slice untouched", func(t *testing.T) {
		newer := createTestBatch(productID, 10, 0, today)
		older := createTestBatch(productID, 10, 5, today)
		input := []*Batch{newer, older}

		SortFIFO(input)
		assert.Equal(t, newer.ID, input[0].ID)
	})
}

func TestPlanConsumption(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	productID := uuid.New()

	t.Run("Rejects zero quantity", func(t *testing.T) {
		_, err := PlanConsumption(decimal.Zero, []*Batch{createTestBatch(productID, 10, 0, today)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("Rejects negative quantity", func(t *testing.T) {
		_, err := PlanConsumption(decimal.NewFromInt(-5), nil)
		assert.Error(t, err)
	})

	t.Run("Reports full shortfall for no batches", func(t *testing.T) {
		plan, err := PlanConsumption(decimal.NewFromInt(10), []*Batch{})
		require.NoError(t, err)
		assert.Len(t, plan.Deductions, 0)
		assert.True(t, plan.Shortfall.Equal(decimal.NewFromInt(10)))
		assert.False(t, plan.FullyFulfilled)
	})

	t.Run("Single batch covers the request", func(t *testing.T) {
		batch := createTestBatch(productID, 10, 0, today)
		plan, err := PlanConsumption(decimal.NewFromInt(4), []*Batch{batch})
		require.NoError(t, err)
		require.Len(t, plan.Deductions, 1)
		assert.Equal(t, batch.ID, plan.Deductions[0].BatchID)
		assert.True(t, plan.Deductions[0].Deducted.Equal(decimal.NewFromInt(4)))
		assert.True(t, plan.Deductions[0].RemainingInBatch.Equal(decimal.NewFromInt(6)))
		assert.False(t, plan.Deductions[0].FullyConsumed)
		assert.True(t, plan.FullyFulfilled)
	})

	t.Run("Splits across batches oldest first", func(t *testing.T) {
		older := createTestBatch(productID, 10, 3, today)
		newer := createTestBatch(productID, 5, 0, today)

		plan, err := PlanConsumption(decimal.NewFromInt(12), []*Batch{newer, older})
		require.NoError(t, err)
		require.Len(t, plan.Deductions, 2)

		assert.Equal(t, older.ID, plan.Deductions[0].BatchID)
		assert.True(t, plan.Deductions[0].Deducted.Equal(decimal.NewFromInt(10)))
		assert.True(t, plan.Deductions[0].FullyConsumed)

		assert.Equal(t, newer.ID, plan.Deductions[1].BatchID)
		assert.True(t, plan.Deductions[1].Deducted.Equal(decimal.NewFromInt(2)))
		assert.True(t, plan.Deductions[1].RemainingInBatch.Equal(decimal.NewFromInt(3)))
		assert.False(t, plan.Deductions[1].FullyConsumed)

		assert.True(t, plan.TotalDeducted.Equal(decimal.NewFromInt(12)))
		assert.True(t, plan.FullyFulfilled)
		assert.Equal(t, []uuid.UUID{older.ID}, plan.BatchesExhausted)
		assert.Equal(t, []uuid.UUID{newer.ID}, plan.BatchesPartial)
	})

	t.Run("Reports shortfall when stock runs out", func(t *testing.T) {
		batches := []*Batch{
			createTestBatch(productID, 10, 3, today),
			createTestBatch(productID, 5, 0, today),
		}
		plan, err := PlanConsumption(decimal.NewFromInt(16), batches)
		require.NoError(t, err)
		assert.True(t, plan.TotalDeducted.Equal(decimal.NewFromInt(15)))
		assert.True(t, plan.Shortfall.Equal(decimal.NewFromInt(1)))
		assert.False(t, plan.FullyFulfilled)
	})

	t.Run("Skips retired batches", func(t *testing.T) {
		retired := createTestBatch(productID, 0, 9, today)
		active := createTestBatch(productID, 5, 0, today)

		plan, err := PlanConsumption(decimal.NewFromInt(3), []*Batch{retired, active})
		require.NoError(t, err)
		require.Len(t, plan.Deductions, 1)
		assert.Equal(t, active.ID, plan.Deductions[0].BatchID)
	})

	t.Run("Planning mutates nothing", func(t *testing.T) {
		batch := createTestBatch(productID, 10, 0, today)
		_, err := PlanConsumption(decimal.NewFromInt(7), []*Batch{batch})
		require.NoError(t, err)
		assert.True(t, batch.Quantity.Equal(decimal.NewFromInt(10)))
	})
}

func TestApplyConsumption(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	productID := uuid.New()

	t.Run("Applies a fulfilled plan", func(t *testing.T) {
		older := createTestBatch(productID, 10, 3, today)
		newer := createTestBatch(productID, 5, 0, today)
		batches := []*Batch{older, newer}

		plan, err := PlanConsumption(decimal.NewFromInt(12), batches)
		require.NoError(t, err)
		require.NoError(t, ApplyConsumption(batches, plan))

		assert.True(t, older.Quantity.IsZero())
		assert.True(t, newer.Quantity.Equal(decimal.NewFromInt(3)))
	})

	t.Run("Refuses an unfulfilled plan", func(t *testing.T) {
		batch := createTestBatch(productID, 5, 0, today)
		batches := []*Batch{batch}

		plan, err := PlanConsumption(decimal.NewFromInt(8), batches)
		require.NoError(t, err)

		err = ApplyConsumption(batches, plan)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.True(t, batch.Quantity.Equal(decimal.NewFromInt(5)), "no partial mutation")
	})

	t.Run("Detects a batch missing from the working set", func(t *testing.T) {
		batch := createTestBatch(productID, 10, 0, today)
		plan, err := PlanConsumption(decimal.NewFromInt(4), []*Batch{batch})
		require.NoError(t, err)

		err = ApplyConsumption([]*Batch{}, plan)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestTotalAvailable(t *testing.T) {
	today := time.Now()
	productID := uuid.New()

	t.Run("Sums active batches only", func(t *testing.T) {
		batches := []*Batch{
			createTestBatch(productID, 10, 3, today),
			createTestBatch(productID, 2.5, 0, today),
			createTestBatch(productID, 0, 9, today),
		}
		assert.True(t, TotalAvailable(batches).Equal(decimal.NewFromFloat(12.5)))
	})

	t.Run("Empty set totals zero", func(t *testing.T) {
		assert.True(t, TotalAvailable(nil).IsZero())
	})
}
