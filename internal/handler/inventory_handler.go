package handler

import (
	"net/http"

	"github.com/metrify/backend/internal/middleware"
	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/service"
	"github.com/metrify/backend/pkg/pagination"
	"github.com/metrify/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/products/:id")
	{
		inventory.POST("/adjustments", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.ApplyAdjustment)
		inventory.GET("/adjustments", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.GetAdjustments)
		inventory.POST("/rebuild", middleware.RequireRole(model.RoleAdmin), h.RebuildProduct)
	}
}

// ApplyAdjustment records one stock adjustment against the ledger
// @Summary      Apply stock adjustment
// @Description  Appends a stock-in or stock-out event; stock-in recomputes the weighted-average cost basis inside a locked transaction
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Product ID"
// @Param        payload  body      service.ApplyAdjustmentRequest  true  "Adjustment Payload"
// @Success      201      {object}  response.Response{data=service.AdjustmentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response "Insufficient stock"
// @Router       /api/products/{id}/adjustments [post]
func (h *InventoryHandler) ApplyAdjustment(c *gin.Context) {
	var req service.ApplyAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	adjustment, err := h.inventoryService.ApplyAdjustment(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, adjustment))
}

// GetAdjustments lists the adjustment log for a product
// @Summary      List stock adjustments
// @Description  Returns the timestamp-ordered (newest first) adjustment log with post-event snapshots
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.AdjustmentResponse}
// @Failure      400    {object}  response.Response
// @Failure      500    {object}  response.Response
// @Router       /api/products/{id}/adjustments [get]
func (h *InventoryHandler) GetAdjustments(c *gin.Context) {
	params := pagination.Parse(c)

	adjustments, total, err := h.inventoryService.GetAdjustments(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, adjustments, params.Page, params.Limit, total))
}

// RebuildProduct replays the adjustment log from scratch
// @Summary      Rebuild product ledger state
// @Description  Replays all adjustments in timestamp order and rewrites the derived quantity/cost pair (admin only)
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.AdjustmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/rebuild [post]
func (h *InventoryHandler) RebuildProduct(c *gin.Context) {
	userID := c.GetString("userID")

	state, err := h.inventoryService.RebuildProduct(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
}
