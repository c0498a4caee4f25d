package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/service"
	appErrors "github.com/schoolops/board-api/pkg/errors"
	"github.com/schoolops/board-api/pkg/response"
)

// AdjustmentHandler exposes the cross-teacher batch session endpoints.
type AdjustmentHandler struct {
	service *service.AdjustmentService
}

// NewAdjustmentHandler creates a new handler.
func NewAdjustmentHandler(svc *service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{service: svc}
}

// Enter godoc
// @Summary Open an adjustment session for a date
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /boards/{date}/adjustment [post]
func (h *AdjustmentHandler) Enter(c *gin.Context) {
	state, err := h.service.Enter(c.Request.Context(), c.Param("date"))
	h.respond(c, state, err)
}

// Exit godoc
// @Summary Close the session without persisting
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /boards/{date}/adjustment [delete]
func (h *AdjustmentHandler) Exit(c *gin.Context) {
	state, err := h.service.Exit(c.Request.Context(), c.Param("date"))
	h.respond(c, state, err)
}

// OptIn godoc
// @Summary Add a teacher to the pending set
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /boards/{date}/adjustment/teachers/{teacherId} [post]
func (h *AdjustmentHandler) OptIn(c *gin.Context) {
	state, err := h.service.OptIn(c.Request.Context(), c.Param("date"), c.Param("teacherId"))
	h.respond(c, state, err)
}

// OptOut godoc
// @Summary Remove a teacher from the pending set
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /boards/{date}/adjustment/teachers/{teacherId} [delete]
func (h *AdjustmentHandler) OptOut(c *gin.Context) {
	state, err := h.service.OptOut(c.Request.Context(), c.Param("date"), c.Param("teacherId"))
	h.respond(c, state, err)
}

// ApplyTime godoc
// @Summary Propose a synchronized start time
// @Tags Adjustment
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.AdjustmentTimeRequest true "Target time"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /boards/{date}/adjustment/time [post]
func (h *AdjustmentHandler) ApplyTime(c *gin.Context) {
	var req dto.AdjustmentTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time payload"))
		return
	}
	state, err := h.service.ApplyTime(c.Request.Context(), c.Param("date"), req.Time)
	h.respond(c, state, err)
}

// Adapt godoc
// @Summary Toggle the synchronized lock
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /boards/{date}/adjustment/adapt [post]
func (h *AdjustmentHandler) Adapt(c *gin.Context) {
	state, err := h.service.Adapt(c.Request.Context(), c.Param("date"))
	h.respond(c, state, err)
}

// ApplyLocation godoc
// @Summary Apply a shared location to every pending board
// @Tags Adjustment
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.AdjustmentLocationRequest true "Target location"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /boards/{date}/adjustment/location [post]
func (h *AdjustmentHandler) ApplyLocation(c *gin.Context) {
	var req dto.AdjustmentLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}
	state, err := h.service.ApplyLocation(c.Request.Context(), c.Param("date"), req.Location)
	h.respond(c, state, err)
}

// Discard godoc
// @Summary Roll pending queues back to their snapshots
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /boards/{date}/adjustment/discard [post]
func (h *AdjustmentHandler) Discard(c *gin.Context) {
	state, err := h.service.Discard(c.Request.Context(), c.Param("date"))
	h.respond(c, state, err)
}

// Commit godoc
// @Summary Persist the session's changes and close it
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /boards/{date}/adjustment/commit [post]
func (h *AdjustmentHandler) Commit(c *gin.Context) {
	result, err := h.service.Commit(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// State godoc
// @Summary Report the session status
// @Tags Adjustment
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /boards/{date}/adjustment [get]
func (h *AdjustmentHandler) State(c *gin.Context) {
	state, err := h.service.State(c.Request.Context(), c.Param("date"))
	h.respond(c, state, err)
}

func (h *AdjustmentHandler) respond(c *gin.Context, state dto.AdjustmentStateView, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
