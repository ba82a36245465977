package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-apps/atelier-admin-api/internal/service"
	"github.com/atelier-apps/atelier-admin-api/pkg/response"
)

// MaintenanceHandler exposes administrative repair routines.
type MaintenanceHandler struct {
	accounting *service.AccountingService
	metrics    *service.MetricsService
}

// NewMaintenanceHandler constructs MaintenanceHandler.
func NewMaintenanceHandler(accounting *service.AccountingService, metrics *service.MetricsService) *MaintenanceHandler {
	return &MaintenanceHandler{accounting: accounting, metrics: metrics}
}

// RepairPackageDates godoc
// @Summary Rewrite stored package start dates that drifted from session history
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/repair-package-dates [post]
func (h *MaintenanceHandler) RepairPackageDates(c *gin.Context) {
	result, err := h.accounting.RepairPackageDates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordRepairUpdates(result.UpdatedCount)
	}
	response.JSON(c, http.StatusOK, result, nil)
}
