package handler

import (
	inventoryapp "github.com/cafepos/backend/internal/application/inventory"
	"github.com/cafepos/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BatchHandler handles batch store API endpoints
type BatchHandler struct {
	BaseHandler
	batchService *inventoryapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *inventoryapp.BatchService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
	}
}

// Create godoc
// @ID           createBatch
// @Summary      Create a batch
// @Description  Record a new stock lot for a product. The date defaults to today; an explicit date backfills older stock.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateBatchRequest true "Batch creation request"
// @Success      201 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	batch, err := h.batchService.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// List godoc
// @ID           listBatches
// @Summary      List active batches
// @Description  List every active batch with its product pricing snapshot, oldest first, optionally narrowed to one age category
// @Tags         inventory
// @Produce      json
// @Param        age_category query string false "Age category filter" Enums(fresh, medium, old)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" maximum(200)
// @Success      200 {object} APIResponse[[]inventoryapp.ActiveBatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	var filter inventoryapp.BatchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	batches, err := h.batchService.ListAllActiveBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// GetByID godoc
// @ID           getBatchById
// @Summary      Get batch by ID
// @Description  Retrieve one batch with its derived age fields
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batches/{id} [get]
func (h *BatchHandler) GetByID(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.batchService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// ListByProduct godoc
// @ID           listBatchesByProduct
// @Summary      List a product's batches
// @Description  List the product's active batches oldest first
// @Tags         inventory
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/products/{product_id}/batches [get]
func (h *BatchHandler) ListByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	batches, err := h.batchService.ListBatchesForProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// SetQuantity godoc
// @ID           setBatchQuantity
// @Summary      Overwrite a batch quantity
// @Description  Set a batch's remaining quantity for a manual correction. Setting zero retires the batch.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Param        request body inventoryapp.SetQuantityRequest true "New quantity"
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batches/{id}/quantity [put]
func (h *BatchHandler) SetQuantity(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req inventoryapp.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	batch, err := h.batchService.SetQuantity(c.Request.Context(), batchID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// Delete godoc
// @ID           deleteBatch
// @Summary      Delete a batch
// @Description  Remove a batch row entirely, for data-entry mistakes
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batches/{id} [delete]
func (h *BatchHandler) Delete(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	if err := h.batchService.DeleteBatch(c.Request.Context(), batchID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Cleanup godoc
// @ID           cleanupRetiredBatches
// @Summary      Sweep retired batches
// @Description  Delete batch rows already drained to zero and report how many were removed
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[inventoryapp.CleanupResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batches/cleanup [post]
func (h *BatchHandler) Cleanup(c *gin.Context) {
	result, err := h.batchService.CleanupRetired(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers all batch store routes
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/batches", h.Create)
		inventory.GET("/batches", h.List)
		inventory.POST("/batches/cleanup", h.Cleanup)
		inventory.GET("/batches/:id", h.GetByID)
		inventory.PUT("/batches/:id/quantity", h.SetQuantity)
		inventory.DELETE("/batches/:id", h.Delete)
		inventory.GET("/products/:product_id/batches", h.ListByProduct)
	}
}
