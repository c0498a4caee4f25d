package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/middleware"
	"github.com/schoolops/board-api/internal/service"
	appErrors "github.com/schoolops/board-api/pkg/errors"
	"github.com/schoolops/board-api/pkg/response"
)

// BoardHandler exposes the day-board read and mutation endpoints.
type BoardHandler struct {
	service *service.BoardService
}

// NewBoardHandler creates a new handler.
func NewBoardHandler(svc *service.BoardService) *BoardHandler {
	return &BoardHandler{service: svc}
}

// GetDay godoc
// @Summary Get all boards for a date
// @Description Returns every teacher's queue for the date with gap annotations
// @Tags Boards
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /boards/{date} [get]
func (h *BoardHandler) GetDay(c *gin.Context) {
	view, cacheHit, err := h.service.DayViewCached(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// GetTeacher godoc
// @Summary Get one teacher's board
// @Description Returns the teacher's ordered queue plus per-pair gap reports
// @Tags Boards
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /boards/{date}/teachers/{teacherId} [get]
func (h *BoardHandler) GetTeacher(c *gin.Context) {
	view, err := h.service.TeacherView(c.Request.Context(), c.Param("date"), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// CreateEvent godoc
// @Summary Add a lesson to a teacher's board
// @Description Places the event via the slot heuristic and persists the board
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /boards/{date}/teachers/{teacherId}/events [post]
func (h *BoardHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	req.Date = c.Param("date")
	req.TeacherID = c.Param("teacherId")

	view, err := h.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, view, nil)
}

// MoveEvent godoc
// @Summary Move an event earlier or later
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Param payload body dto.MoveEventRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId}/move [post]
func (h *BoardHandler) MoveEvent(c *gin.Context) {
	var req dto.MoveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.MoveEvent(c.Request.Context(), date, teacherID, eventID, req.Direction)
	})
}

// ResizeEvent godoc
// @Summary Grow or shrink an event by one step
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Param payload body dto.ResizeEventRequest true "Resize payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId}/resize [post]
func (h *BoardHandler) ResizeEvent(c *gin.Context) {
	var req dto.ResizeEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resize payload"))
		return
	}
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.ResizeEvent(c.Request.Context(), date, teacherID, eventID, req.Grow)
	})
}

// ReorderEvent godoc
// @Summary Swap an event with its neighbour
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Param payload body dto.ReorderEventRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId}/reorder [post]
func (h *BoardHandler) ReorderEvent(c *gin.Context) {
	var req dto.ReorderEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reorder payload"))
		return
	}
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.ReorderEvent(c.Request.Context(), date, teacherID, eventID, req.Direction)
	})
}

// CloseGap godoc
// @Summary Pull an event flush against its predecessor
// @Tags Boards
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId}/close-gap [post]
func (h *BoardHandler) CloseGap(c *gin.Context) {
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.CloseGap(c.Request.Context(), date, teacherID, eventID)
	})
}

// RemoveEvent godoc
// @Summary Delete an event and recompact the queue
// @Tags Boards
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId} [delete]
func (h *BoardHandler) RemoveEvent(c *gin.Context) {
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.RemoveEvent(c.Request.Context(), date, teacherID, eventID)
	})
}

// SetLocation godoc
// @Summary Relabel one event's location
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Param payload body dto.SetLocationRequest true "Location"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId}/location [put]
func (h *BoardHandler) SetLocation(c *gin.Context) {
	var req dto.SetLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.SetEventLocation(c.Request.Context(), date, teacherID, eventID, req.Location)
	})
}

// SetQueueLocation godoc
// @Summary Relabel every event on one teacher's board
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.SetLocationRequest true "Location"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /boards/{date}/teachers/{teacherId}/location [put]
func (h *BoardHandler) SetQueueLocation(c *gin.Context) {
	var req dto.SetLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}
	view, err := h.service.SetQueueLocation(c.Request.Context(), c.Param("date"), c.Param("teacherId"), req.Location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SetStatus godoc
// @Summary Move an event through its lifecycle
// @Tags Boards
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param eventId path string true "Event ID"
// @Param payload body dto.SetStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /boards/{date}/events/{eventId}/status [put]
func (h *BoardHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	h.withEventTeacher(c, func(date, teacherID, eventID string) (dto.TeacherBoardView, error) {
		return h.service.SetEventStatus(c.Request.Context(), date, teacherID, eventID, req.Status)
	})
}

// withEventTeacher resolves which queue owns the event, runs the mutation, and
// writes the refreshed board.
func (h *BoardHandler) withEventTeacher(c *gin.Context, fn func(date, teacherID, eventID string) (dto.TeacherBoardView, error)) {
	date := c.Param("date")
	eventID := c.Param("eventId")

	teacherID, err := h.service.TeacherOfEvent(c.Request.Context(), date, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := fn(date, teacherID, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
