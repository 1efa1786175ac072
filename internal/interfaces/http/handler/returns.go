package handler

import (
	returnsapp "github.com/cafepos/backend/internal/application/returns"
	"github.com/cafepos/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReturnsHandler handles supplier return API endpoints
type ReturnsHandler struct {
	BaseHandler
	returnsService *returnsapp.ReturnsService
}

// NewReturnsHandler creates a new ReturnsHandler
func NewReturnsHandler(returnsService *returnsapp.ReturnsService) *ReturnsHandler {
	return &ReturnsHandler{
		returnsService: returnsService,
	}
}

// Process godoc
//
//	@ID				processReturn
//	@Summary		Process a supplier return
//	@Description	Commit a return for the selected batches: candidates not marked keep are valued, recorded, and removed from stock in one transaction
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			request	body		returnsapp.ProcessReturnRequest	true	"Return request"
//	@Success		201		{object}	APIResponse[returnsapp.ProcessReturnResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/returns [post]
func (h *ReturnsHandler) Process(c *gin.Context) {
	var req returnsapp.ProcessReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.returnsService.ProcessReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
//
//	@ID				listReturns
//	@Summary		List returns
//	@Description	Retrieve a paginated list of processed returns, newest first
//	@Tags			returns
//	@Produce		json
//	@Param			page		query		int	false	"Page number"	default(1)
//	@Param			page_size	query		int	false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]returnsapp.ReturnResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/returns [get]
func (h *ReturnsHandler) List(c *gin.Context) {
	var filter returnsapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.returnsService.ListReturns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Returns, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
//
//	@ID				getReturnById
//	@Summary		Get return by ID
//	@Description	Retrieve a return transaction with its line items
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return ID"	format(uuid)
//	@Success		200	{object}	APIResponse[returnsapp.ReturnResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/returns/{id} [get]
func (h *ReturnsHandler) GetByID(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	ret, err := h.returnsService.GetReturn(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ret)
}

// Undo godoc
//
//	@ID				undoReturn
//	@Summary		Undo a return
//	@Description	Reverse a processed return: recreate one batch per line item, backdated to its age at return, and delete the return record
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return ID"	format(uuid)
//	@Success		200	{object}	APIResponse[returnsapp.UndoReturnResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/returns/{id}/undo [post]
func (h *ReturnsHandler) Undo(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	result, err := h.returnsService.UndoReturn(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers all returns routes
func (h *ReturnsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/returns")
	{
		returns.POST("", h.Process)
		returns.GET("", h.List)
		returns.GET("/:id", h.GetByID)
		returns.POST("/:id/undo", h.Undo)
	}
}
