package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/metrify/backend/internal/middleware"
	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/service"
	"github.com/metrify/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		reports.GET("/profit", h.GetProfitReport)
		reports.GET("/profit/export", h.ExportProfitReport)
	}
}

// parsePeriod reads start_date/end_date query params, defaulting to the
// current month.
func parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now

	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date format, expected RFC3339"))
			return start, end, false
		}
		start = t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date format, expected RFC3339"))
			return start, end, false
		}
		end = t
	}

	return start, end, true
}

// GetProfitReport returns the aggregated profit report for a period
// @Summary      Profit report
// @Description  Per-product revenue/cost/tax/expense/profit plus a grand total; unmatched sales are excluded but counted
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query  string  false  "Start date (RFC3339, defaults to first of current month)"
// @Param        end_date    query  string  false  "End date (RFC3339, defaults to now)"
// @Success      200  {object}  response.Response{data=service.Report}
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/reports/profit [get]
func (h *ReportHandler) GetProfitReport(c *gin.Context) {
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetProfitReport(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ExportProfitReport streams the profit report as an xlsx attachment
// @Summary      Export profit report
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        start_date  query  string  false  "Start date (RFC3339)"
// @Param        end_date    query  string  false  "End date (RFC3339)"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/reports/profit/export [get]
func (h *ReportHandler) ExportProfitReport(c *gin.Context) {
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetProfitReport(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	workbook, err := service.BuildProfitWorkbook(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("profit-report-%s.xlsx", start.Format(time.DateOnly))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := workbook.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to write workbook"))
	}
}
