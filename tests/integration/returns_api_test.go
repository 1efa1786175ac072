package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryapp "github.com/cafepos/backend/internal/application/inventory"
	returnsapp "github.com/cafepos/backend/internal/application/returns"
	"github.com/cafepos/backend/tests/testutil"
)

func floatPtr(v float64) *float64 {
	return &v
}

// processReturn commits a return through the API and returns the response.
func (ts *LedgerTestServer) processReturn(body map[string]any) returnsapp.ProcessReturnResponse {
	ts.t.Helper()

	w := ts.Request(http.MethodPost, "/api/v1/returns", body)
	require.Equal(ts.t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())

	var result returnsapp.ProcessReturnResponse
	testutil.DecodeData(ts.t, w, &result)
	return result
}

func (ts *LedgerTestServer) activeBatches(productID uuid.UUID) []inventoryapp.BatchResponse {
	ts.t.Helper()

	w := ts.Request(http.MethodGet, "/api/v1/inventory/products/"+productID.String()+"/batches", nil)
	require.Equal(ts.t, http.StatusOK, w.Code)

	var batches []inventoryapp.BatchResponse
	testutil.DecodeData(ts.t, w, &batches)
	return batches
}

func TestReturnsAPI_ProcessAndValuation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewLedgerTestServer(t)
	productID := ts.DB.SeedProduct("Almond Cake", 100.00, 60.00, floatPtr(20), false)
	batch := ts.CreateBatch(productID, 4, daysAgo(5))

	result := ts.processReturn(map[string]any{
		"candidate_batch_ids": []string{batch.ID.String()},
	})

	ret := result.Return
	assert.Empty(t, result.Warning)
	assert.Equal(t, testActor, ret.ProcessedBy)
	assert.Equal(t, time.Now().Format("2006-01-02"), ret.ReturnDate)
	assert.Equal(t, 1, ret.TotalBatches)
	assert.True(t, ret.TotalQuantity.Equal(decimal.NewFromInt(4)), "total quantity %s", ret.TotalQuantity)
	assert.True(t, ret.TotalValue.Equal(decimal.NewFromInt(80)), "total value %s", ret.TotalValue)

	require.Len(t, ret.LineItems, 1)
	line := ret.LineItems[0]
	assert.Equal(t, productID, line.ProductID)
	assert.Equal(t, "Almond Cake", line.ProductName)
	assert.True(t, line.Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, 5, line.AgeAtReturn)
	assert.True(t, line.OriginalPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, line.SalePrice.Equal(decimal.NewFromInt(60)))
	assert.True(t, line.ReturnPercentage.Equal(decimal.NewFromInt(20)))
	assert.True(t, line.ReturnValuePerUnit.Equal(decimal.NewFromInt(20)), "per unit %s", line.ReturnValuePerUnit)
	assert.True(t, line.TotalReturnValue.Equal(decimal.NewFromInt(80)), "line total %s", line.TotalReturnValue)

	t.Run("Returned batch leaves the active set", func(t *testing.T) {
		assert.Empty(t, ts.activeBatches(productID))

		w := ts.Request(http.MethodGet, "/api/v1/inventory/products/"+productID.String()+"/stock", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var summary inventoryapp.StockSummaryResponse
		testutil.DecodeData(t, w, &summary)
		assert.True(t, summary.TotalStock.IsZero())
		assert.Equal(t, 0, summary.ActiveBatches)
	})

	t.Run("Committed return is readable by id", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/returns/"+ret.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var found returnsapp.ReturnResponse
		testutil.DecodeData(t, w, &found)
		assert.Equal(t, ret.ID, found.ID)
		assert.Len(t, found.LineItems, 1)
	})

	t.Run("Listing reports the return with pagination meta", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/returns", nil)
		require.Equal(t, http.StatusOK, w.Code)

		envelope := testutil.DecodeEnvelope(t, w)
		require.True(t, envelope.Success)
		require.NotNil(t, envelope.Meta)
		assert.Equal(t, int64(1), envelope.Meta.Total)

		var listed []returnsapp.ReturnResponse
		testutil.DecodeData(t, w, &listed)
		require.Len(t, listed, 1)
		assert.Equal(t, ret.ID, listed[0].ID)
	})
}

func TestReturnsAPI_PercentageResolution(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewLedgerTestServer(t)

	t.Run("System default applies when the product has none", func(t *testing.T) {
		productID := ts.DB.SeedProduct("Seeded Roll", 10.00, 8.00, nil, false)
		batch := ts.CreateBatch(productID, 2, "")

		result := ts.processReturn(map[string]any{
			"candidate_batch_ids": []string{batch.ID.String()},
		})

		line := result.Return.LineItems[0]
		assert.True(t, line.ReturnPercentage.Equal(decimal.NewFromInt(20)))
		assert.True(t, line.ReturnValuePerUnit.Equal(decimal.NewFromInt(2)))
		assert.True(t, line.TotalReturnValue.Equal(decimal.NewFromInt(4)))
	})

	t.Run("Caller override wins over the product default", func(t *testing.T) {
		productID := ts.DB.SeedProduct("Walnut Tart", 100.00, 70.00, floatPtr(20), false)
		batch := ts.CreateBatch(productID, 3, "")

		result := ts.processReturn(map[string]any{
			"candidate_batch_ids": []string{batch.ID.String()},
			"percentage_overrides": map[string]any{
				batch.ID.String(): 100,
			},
		})

		line := result.Return.LineItems[0]
		assert.True(t, line.ReturnPercentage.Equal(decimal.NewFromInt(100)))
		assert.True(t, line.ReturnValuePerUnit.Equal(decimal.NewFromInt(100)))
		assert.True(t, line.TotalReturnValue.Equal(decimal.NewFromInt(300)))
	})

	t.Run("Override beyond 100 rejected", func(t *testing.T) {
		productID := ts.DB.SeedProduct("Lemon Slice", 5.00, 4.00, nil, false)
		batch := ts.CreateBatch(productID, 1, "")

		w := ts.Request(http.MethodPost, "/api/v1/returns", map[string]any{
			"candidate_batch_ids": []string{batch.ID.String()},
			"percentage_overrides": map[string]any{
				batch.ID.String(): 150,
			},
		})
		testutil.RequireErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

		// Failed return leaves the batch alone
		assert.Len(t, ts.activeBatches(productID), 1)
	})
}

func TestReturnsAPI_KeepPartition(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewLedgerTestServer(t)
	productID := ts.DB.SeedProduct("Olive Loaf", 8.00, 6.50, floatPtr(50), false)

	returned := ts.CreateBatch(productID, 5, daysAgo(4))
	kept := ts.CreateBatch(productID, 3, "")

	t.Run("Kept batches stay out of the return", func(t *testing.T) {
		result := ts.processReturn(map[string]any{
			"candidate_batch_ids": []string{returned.ID.String(), kept.ID.String()},
			"keep_batch_ids":      []string{kept.ID.String()},
		})

		require.Len(t, result.Return.LineItems, 1)
		assert.Equal(t, productID, result.Return.LineItems[0].ProductID)
		assert.True(t, result.Return.TotalQuantity.Equal(decimal.NewFromInt(5)))

		active := ts.activeBatches(productID)
		require.Len(t, active, 1)
		assert.Equal(t, kept.ID, active[0].ID)
	})

	t.Run("Keeping every candidate is rejected without a record", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/returns", map[string]any{
			"candidate_batch_ids": []string{kept.ID.String()},
			"keep_batch_ids":      []string{kept.ID.String()},
		})
		testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, "NOTHING_TO_RETURN")

		active := ts.activeBatches(productID)
		require.Len(t, active, 1)
		assert.True(t, active[0].Quantity.Equal(decimal.NewFromInt(3)))
	})

	t.Run("Empty candidate list fails validation", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/returns", map[string]any{
			"candidate_batch_ids": []string{},
		})
		testutil.RequireErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("Vanished candidate batch fails the whole return", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/returns", map[string]any{
			"candidate_batch_ids": []string{kept.ID.String(), uuid.NewString()},
		})
		testutil.RequireErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")

		// The surviving candidate was not consumed by the failed attempt
		assert.Len(t, ts.activeBatches(productID), 1)
	})
}

func TestReturnsAPI_UndoRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewLedgerTestServer(t)
	productID := ts.DB.SeedProduct("Fig Danish", 100.00, 75.00, floatPtr(20), false)
	original := ts.CreateBatch(productID, 4, daysAgo(5))

	committed := ts.processReturn(map[string]any{
		"candidate_batch_ids": []string{original.ID.String()},
	})
	returnID := committed.Return.ID
	require.Empty(t, ts.activeBatches(productID))

	t.Run("Undo recreates the batch with its age preserved", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/returns/"+returnID.String()+"/undo", nil)
		require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

		var undo returnsapp.UndoReturnResponse
		testutil.DecodeData(t, w, &undo)
		assert.Equal(t, returnID, undo.ReturnID)
		assert.Equal(t, testActor, undo.UndoneBy)
		assert.Equal(t, 1, undo.BatchesRecreated)
		require.Len(t, undo.RecreatedBatchIDs, 1)
		assert.NotEqual(t, original.ID, undo.RecreatedBatchIDs[0], "undo must create a fresh batch row")
		assert.True(t, undo.TotalQuantity.Equal(decimal.NewFromInt(4)))

		active := ts.activeBatches(productID)
		require.Len(t, active, 1)
		restored := active[0]
		assert.Equal(t, undo.RecreatedBatchIDs[0], restored.ID)
		assert.True(t, restored.Quantity.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, 5, restored.AgeDays)
		assert.Equal(t, "medium", restored.AgeCategory)
		assert.Equal(t, daysAgo(5), restored.DateAdded)
	})

	t.Run("Undone return is gone", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/returns/"+returnID.String(), nil)
		testutil.RequireErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("Second undo fails with NOT_FOUND", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/returns/"+returnID.String()+"/undo", nil)
		testutil.RequireErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("Undo of an unknown return id fails", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/returns/"+uuid.NewString()+"/undo", nil)
		testutil.RequireErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")
	})
}
