package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelier-apps/atelier-admin-api/internal/service"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
	"github.com/atelier-apps/atelier-admin-api/pkg/response"
)

// StatsHandler exposes revenue statistics and report exports.
type StatsHandler struct {
	stats   *service.StatsService
	exports *service.ExportService
}

// NewStatsHandler constructs StatsHandler. The export service may be nil
// when report downloads are disabled.
func NewStatsHandler(stats *service.StatsService, exports *service.ExportService) *StatsHandler {
	return &StatsHandler{stats: stats, exports: exports}
}

func (h *StatsHandler) year(c *gin.Context) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "year must be an integer")
	}
	return year, nil
}

// Monthly godoc
// @Summary Monthly activity and revenue for one year
// @Tags Statistics
// @Produce json
// @Param year query int false "Year, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /stats/monthly [get]
func (h *StatsHandler) Monthly(c *gin.Context) {
	year, err := h.year(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.stats.Monthly(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Yearly godoc
// @Summary Activity and revenue rolled up per year
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/yearly [get]
func (h *StatsHandler) Yearly(c *gin.Context) {
	stats, err := h.stats.Yearly(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportMonthly godoc
// @Summary Download the monthly statistics report
// @Tags Statistics
// @Produce octet-stream
// @Param year query int false "Year, defaults to current"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /stats/monthly/export [get]
func (h *StatsHandler) ExportMonthly(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports are disabled"))
		return
	}
	year, err := h.year(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.MonthlyReport(c.Request.Context(), year, exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// ExportYearly godoc
// @Summary Download the yearly statistics report
// @Tags Statistics
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /stats/yearly/export [get]
func (h *StatsHandler) ExportYearly(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports are disabled"))
		return
	}
	result, err := h.exports.YearlyReport(c.Request.Context(), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func exportFormat(c *gin.Context) service.ExportFormat {
	return service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
}
