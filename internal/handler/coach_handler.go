package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-apps/atelier-admin-api/internal/service"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
	"github.com/atelier-apps/atelier-admin-api/pkg/response"
)

// CoachHandler exposes coach endpoints.
type CoachHandler struct {
	coaches *service.CoachService
}

// NewCoachHandler constructs CoachHandler.
func NewCoachHandler(coaches *service.CoachService) *CoachHandler {
	return &CoachHandler{coaches: coaches}
}

// List godoc
// @Summary List coaches
// @Tags Coaches
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /coaches [get]
func (h *CoachHandler) List(c *gin.Context) {
	coaches, err := h.coaches.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coaches, nil)
}

// Get godoc
// @Summary Get one coach
// @Tags Coaches
// @Produce json
// @Param id path string true "Coach ID"
// @Success 200 {object} response.Envelope
// @Router /coaches/{id} [get]
func (h *CoachHandler) Get(c *gin.Context) {
	coach, err := h.coaches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coach, nil)
}

// Create godoc
// @Summary Register a coach
// @Tags Coaches
// @Accept json
// @Produce json
// @Param payload body service.CreateCoachRequest true "Coach payload"
// @Success 201 {object} response.Envelope
// @Router /coaches [post]
func (h *CoachHandler) Create(c *gin.Context) {
	var req service.CreateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	coach, err := h.coaches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coach)
}

// Update godoc
// @Summary Update a coach
// @Tags Coaches
// @Accept json
// @Produce json
// @Param id path string true "Coach ID"
// @Param payload body service.UpdateCoachRequest true "Partial coach payload"
// @Success 200 {object} response.Envelope
// @Router /coaches/{id} [patch]
func (h *CoachHandler) Update(c *gin.Context) {
	var req service.UpdateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	coach, err := h.coaches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coach, nil)
}

// Delete godoc
// @Summary Delete a coach
// @Tags Coaches
// @Param id path string true "Coach ID"
// @Success 204
// @Router /coaches/{id} [delete]
func (h *CoachHandler) Delete(c *gin.Context) {
	if err := h.coaches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
