package handler

import (
	"net/http"

	"github.com/metrify/backend/internal/middleware"
	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/service"
	"github.com/metrify/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importService service.ImportService
}

func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	imports := router.Group("/api/imports")
	imports.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		imports.POST("/marketplace", h.ImportMarketplace)
	}
}

// ImportMarketplace ingests an uploaded marketplace order spreadsheet
// @Summary      Import marketplace sales
// @Description  Parses an uploaded xlsx order export, matches each row to the catalog by SKU then normalized title, and persists every row with its match status
// @Tags         import
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Marketplace order export (.xlsx)"
// @Success      200   {object}  response.Response{data=service.ImportSummary}
// @Failure      400   {object}  response.Response
// @Failure      500   {object}  response.Response
// @Router       /api/imports/marketplace [post]
func (h *ImportHandler) ImportMarketplace(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing upload: expected multipart field 'file'"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open upload: "+err.Error()))
		return
	}
	defer file.Close()

	userID := c.GetString("userID")

	summary, err := h.importService.ImportMarketplaceSales(c.Request.Context(), userID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
