package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/board"
	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/middleware"
	"github.com/schoolops/board-api/internal/models"
	"github.com/schoolops/board-api/internal/repository"
	"github.com/schoolops/board-api/internal/service"
	"github.com/schoolops/board-api/pkg/jobs"
	"github.com/schoolops/board-api/pkg/storage"
)

type exportStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportStoreStub() *exportStoreStub {
	return &exportStoreStub{jobs: make(map[string]*models.ExportJob)}
}

func (s *exportStoreStub) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *exportStoreStub) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *exportStoreStub) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	return nil
}

func (s *exportStoreStub) ListQueued(_ context.Context, _ int) ([]models.ExportJob, error) {
	return nil, nil
}

func (s *exportStoreStub) ListFinishedBefore(_ context.Context, _ time.Time, _ int) ([]models.ExportJob, error) {
	return nil, nil
}

type dispatcherStub struct {
	enqueued []jobs.Job
	fail     bool
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.fail {
		return errors.New("queue full")
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type exportStorageStub struct{}

func (exportStorageStub) Save(filename string, _ []byte) (string, error) { return filename, nil }
func (exportStorageStub) Open(string) (*os.File, error)                  { return nil, os.ErrNotExist }
func (exportStorageStub) Delete(string) error                            { return nil }
func (exportStorageStub) CleanupOlderThan(time.Duration) ([]string, error) {
	return nil, nil
}

func newExportRouter(store *exportStoreStub, dispatcher *dispatcherStub, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	boards := service.NewBoardService(newBoardRepoStub(), nil, service.NewMetricsService(), nil, nil, service.BoardServiceConfig{
		Settings: board.Settings{StepMinutes: 30, MinDurationMinutes: 30, RequiredGapMinutes: 15},
	})
	exporter := service.NewExportService(boards, exportStorageStub{}, storage.NewSignedURLSigner("test-secret", time.Hour),
		service.ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
	svc := service.NewExportJobService(store, dispatcher, exporter, nil, service.ExportJobServiceConfig{})
	h := NewExportHandler(svc)

	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, claims)
			c.Next()
		})
	}
	router.GET("/boards/:date/export", h.Create)
	router.GET("/exports/:jobId", h.Status)
	router.GET("/exports/download/:token", h.Download)
	return router
}

func TestExportHandlerCreateQueuesJob(t *testing.T) {
	store := newExportStoreStub()
	dispatcher := &dispatcherStub{}
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	router := newExportRouter(store, dispatcher, claims)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boards/2025-03-14/export?format=pdf", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var envelope struct {
		Data dto.ExportJobView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.ExportStatusQueued, envelope.Data.Status)
	assert.Equal(t, "pdf", envelope.Data.Format)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, envelope.Data.ID, dispatcher.enqueued[0].ID)

	stored := store.jobs[envelope.Data.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "admin-1", stored.CreatedBy)
}

func TestExportHandlerCreateDefaultsToCSV(t *testing.T) {
	store := newExportStoreStub()
	router := newExportRouter(store, &dispatcherStub{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boards/2025-03-14/export", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var envelope struct {
		Data dto.ExportJobView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "csv", envelope.Data.Format)
}

func TestExportHandlerCreateRejectsBadFormat(t *testing.T) {
	router := newExportRouter(newExportStoreStub(), &dispatcherStub{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boards/2025-03-14/export?format=xlsx", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerStatusNotFound(t *testing.T) {
	router := newExportRouter(newExportStoreStub(), &dispatcherStub{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerStatusReportsProgress(t *testing.T) {
	store := newExportStoreStub()
	router := newExportRouter(store, &dispatcherStub{}, nil)

	url := "/api/v1/exports/download/tok"
	job := &models.ExportJob{
		ID:        "job-1",
		Params:    models.ExportJobParams{Date: "2025-03-14", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		ResultURL: &url,
	}
	store.jobs[job.ID] = job

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/job-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.ExportJobView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.ExportStatusFinished, envelope.Data.Status)
	assert.Equal(t, 100, envelope.Data.Progress)
	require.NotNil(t, envelope.Data.ResultURL)
	assert.Equal(t, url, *envelope.Data.ResultURL)
}

func TestExportHandlerDownloadRejectsBadToken(t *testing.T) {
	router := newExportRouter(newExportStoreStub(), &dispatcherStub{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/download/garbage-token", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
