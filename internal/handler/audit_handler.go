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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit")
	{
		audit.GET("", middleware.RequireRole(model.RoleAdmin), h.GetLogs)
	}
}

// GetLogs lists audit entries, newest first (admin only)
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.AuditEntryResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/audit [get]
func (h *AuditHandler) GetLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, params.Page, params.Limit, total))
}
