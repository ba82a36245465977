package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-apps/atelier-admin-api/internal/service"
	"github.com/atelier-apps/atelier-admin-api/pkg/response"
)

// PlanningHandler exposes the daily triage board.
type PlanningHandler struct {
	accounting *service.AccountingService
}

// NewPlanningHandler constructs PlanningHandler.
func NewPlanningHandler(accounting *service.AccountingService) *PlanningHandler {
	return &PlanningHandler{accounting: accounting}
}

// Triage godoc
// @Summary Students grouped by required planning action
// @Tags Planning
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /planning/triage [get]
func (h *PlanningHandler) Triage(c *gin.Context) {
	triage, err := h.accounting.PlanningTriage(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, triage, nil)
}
