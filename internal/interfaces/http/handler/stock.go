package handler

import (
	inventoryapp "github.com/cafepos/backend/internal/application/inventory"
	"github.com/cafepos/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler handles stock consumption and aggregation API endpoints
type StockHandler struct {
	BaseHandler
	consumptionService *inventoryapp.ConsumptionService
	batchService       *inventoryapp.BatchService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	consumptionService *inventoryapp.ConsumptionService,
	batchService *inventoryapp.BatchService,
) *StockHandler {
	return &StockHandler{
		consumptionService: consumptionService,
		batchService:       batchService,
	}
}

// Deduct godoc
// @ID           deductStock
// @Summary      Deduct stock for a sale
// @Description  Consume the requested quantity from the product's batches oldest first. Fails atomically when total stock is short.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.DeductStockRequest true "Deduction request"
// @Success      200 {object} APIResponse[inventoryapp.DeductStockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/stock/deduct [post]
func (h *StockHandler) Deduct(c *gin.Context) {
	var req inventoryapp.DeductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.consumptionService.DeductStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetProductStock godoc
// @ID           getProductStock
// @Summary      Get a product's stock summary
// @Description  Total stock and per-age-category quantities derived from the product's active batches. Unknown products report zero stock.
// @Tags         inventory
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.StockSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/products/{product_id}/stock [get]
func (h *StockHandler) GetProductStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	summary, err := h.batchService.GetProductStock(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// RegisterRoutes registers all stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/stock/deduct", h.Deduct)
		inventory.GET("/products/:product_id/stock", h.GetProductStock)
	}
}
