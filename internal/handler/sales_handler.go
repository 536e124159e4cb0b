package handler

import (
	"net/http"
	"time"

	"github.com/metrify/backend/internal/middleware"
	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/service"
	"github.com/metrify/backend/pkg/pagination"
	"github.com/metrify/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	salesService service.SalesService
}

func NewSalesHandler(salesService service.SalesService) *SalesHandler {
	return &SalesHandler{salesService: salesService}
}

func (h *SalesHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	sales.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		sales.POST("", h.CreateSale)
		sales.GET("", h.GetSales)
		sales.GET("/unresolved", h.GetUnresolved)
		sales.POST("/:id/resolve", h.ResolveSale)
	}
}

// CreateSale records a manual sale
// @Summary      Create manual sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSaleRequest  true  "Create Sale Payload"
// @Success      201      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/sales [post]
func (h *SalesHandler) CreateSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	sale, err := h.salesService.CreateManualSale(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// GetSales lists sales with optional period/source/status filters
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (RFC3339)"
// @Param        end_date    query     string  false  "End date (RFC3339)"
// @Param        source      query     string  false  "manual or imported"
// @Param        status      query     string  false  "matched, unmatched or ambiguous"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.SaleResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/sales [get]
func (h *SalesHandler) GetSales(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.SaleListFilter{
		Source: c.Query("source"),
		Status: c.Query("status"),
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date format, expected RFC3339"))
			return
		}
		filter.Start = t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date format, expected RFC3339"))
			return
		}
		filter.End = t
	}

	sales, total, err := h.salesService.GetSales(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, sales, params.Page, params.Limit, total))
}

// GetUnresolved lists imported sales awaiting manual resolution
// @Summary      List unresolved sales
// @Description  Imported sales that matched nothing or matched ambiguously; they are never discarded
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.SaleResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/sales/unresolved [get]
func (h *SalesHandler) GetUnresolved(c *gin.Context) {
	params := pagination.Parse(c)

	sales, total, err := h.salesService.GetUnresolved(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, sales, params.Page, params.Limit, total))
}

// ResolveSale assigns a product to an unresolved sale
// @Summary      Resolve sale
// @Description  Sets the product reference on an unmatched/ambiguous sale; the reference can be set only once
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Sale ID"
// @Param        payload  body      service.ResolveSaleRequest  true  "Resolve Payload"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response "Sale already resolved"
// @Router       /api/sales/{id}/resolve [post]
func (h *SalesHandler) ResolveSale(c *gin.Context) {
	var req service.ResolveSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	sale, err := h.salesService.ResolveSale(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}
