package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/board"
	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/service"
)

func newAdjustmentRouter(repo *boardRepoStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	boards := service.NewBoardService(repo, nil, service.NewMetricsService(), nil, nil, service.BoardServiceConfig{
		Settings: board.Settings{StepMinutes: 30, MinDurationMinutes: 30, RequiredGapMinutes: 15},
	})
	h := NewAdjustmentHandler(service.NewAdjustmentService(boards, repo, service.NewMetricsService(), nil))

	router := gin.New()
	router.POST("/boards/:date/adjustment", h.Enter)
	router.GET("/boards/:date/adjustment", h.State)
	router.DELETE("/boards/:date/adjustment", h.Exit)
	router.POST("/boards/:date/adjustment/time", h.ApplyTime)
	router.POST("/boards/:date/adjustment/commit", h.Commit)
	router.POST("/boards/:date/adjustment/discard", h.Discard)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAdjustmentHandlerEnterReportsPendingTeachers(t *testing.T) {
	repo := newBoardRepoStub(
		seedLesson("a", "t1", 540, 60),
		seedLesson("b", "t2", 600, 30),
	)
	router := newAdjustmentRouter(repo)

	w := doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.AdjustmentStateView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Active)
	assert.ElementsMatch(t, []string{"t1", "t2"}, envelope.Data.PendingTeachers)
}

func TestAdjustmentHandlerApplyTimeWithoutSession(t *testing.T) {
	router := newAdjustmentRouter(newBoardRepoStub(seedLesson("a", "t1", 540, 60)))

	w := doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/time", dto.AdjustmentTimeRequest{Time: "10:30"})

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestAdjustmentHandlerApplyTimeBadPayload(t *testing.T) {
	router := newAdjustmentRouter(newBoardRepoStub(seedLesson("a", "t1", 540, 60)))

	doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment", nil)
	w := doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/time", map[string]int{"time": 630})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustmentHandlerCommitPersistsChanges(t *testing.T) {
	repo := newBoardRepoStub(
		seedLesson("a", "t1", 540, 60),
		seedLesson("b", "t2", 600, 30),
	)
	router := newAdjustmentRouter(repo)

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/time", dto.AdjustmentTimeRequest{Time: "10:30"}).Code)

	w := doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/commit", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.AdjustmentCommitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Applied)
	assert.Len(t, repo.applied, 2)
	for _, change := range repo.applied {
		assert.Equal(t, 630, change.StartMinute)
	}
}

func TestAdjustmentHandlerCommitWithoutSession(t *testing.T) {
	router := newAdjustmentRouter(newBoardRepoStub(seedLesson("a", "t1", 540, 60)))

	w := doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/commit", nil)

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestAdjustmentHandlerDiscardKeepsRepositoryUntouched(t *testing.T) {
	repo := newBoardRepoStub(seedLesson("a", "t1", 540, 60))
	router := newAdjustmentRouter(repo)

	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/time", dto.AdjustmentTimeRequest{Time: "11:00"}).Code)

	w := doJSON(router, http.MethodPost, "/boards/2025-03-14/adjustment/discard", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.applied)
}
