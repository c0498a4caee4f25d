package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/models"
	"github.com/schoolops/board-api/internal/service"
	appErrors "github.com/schoolops/board-api/pkg/errors"
	"github.com/schoolops/board-api/pkg/response"
)

// ExportHandler exposes day-sheet export job endpoints.
type ExportHandler struct {
	service *service.ExportJobService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportJobService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create godoc
// @Summary Request a day-sheet export
// @Description Queues an asynchronous CSV/PDF export for the date
// @Tags Exports
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param format query string true "csv or pdf"
// @Param teacherId query string false "Limit the sheet to one teacher"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /boards/{date}/export [get]
func (h *ExportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	actorID := ""
	if claims != nil {
		actorID = claims.UserID
	}

	req := dto.ExportBoardRequest{
		Date:      c.Param("date"),
		TeacherID: c.Query("teacherId"),
		Format:    c.DefaultQuery("format", string(models.ExportFormatCSV)),
	}
	view, err := h.service.CreateJob(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, view, nil)
}

// Status godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{jobId} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	view, err := h.service.GetStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description Streams the file referenced by a signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "text/csv"
	if download.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, download.Filename))
	c.Header("Content-Type", contentType)

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, download.File, nil)
}
