package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/board"
	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/models"
	appErrors "github.com/schoolops/board-api/pkg/errors"
)

type stubEventRepo struct {
	mu       sync.Mutex
	seed     []models.Event
	saved    map[string][]models.Event
	applied  []models.EventChange
	failSave bool
}

func newStubEventRepo(seed ...models.Event) *stubEventRepo {
	return &stubEventRepo{seed: seed, saved: make(map[string][]models.Event)}
}

func (r *stubEventRepo) ListByDate(_ context.Context, date string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, ev := range r.seed {
		if ev.Date == date {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *stubEventRepo) SaveBoard(_ context.Context, teacherID, date string, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return fmt.Errorf("storage offline")
	}
	copied := make([]models.Event, len(events))
	copy(copied, events)
	r.saved[teacherID+"|"+date] = copied
	return nil
}

func (r *stubEventRepo) ApplyChanges(_ context.Context, changes []models.EventChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, changes...)
	return nil
}

func (r *stubEventRepo) savedBoard(teacherID, date string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[teacherID+"|"+date]
}

func boardLesson(id, teacherID string, start, duration int) models.Event {
	return models.Event{
		ID:              id,
		TeacherID:       teacherID,
		Date:            "2025-03-14",
		StartMinute:     start,
		DurationMinutes: duration,
		Location:        "Main Hall",
		Status:          models.EventStatusPlanned,
	}
}

func newBoardServiceForTest(repo *stubEventRepo) *BoardService {
	return NewBoardService(repo, nil, NewMetricsService(), nil, nil, BoardServiceConfig{
		Settings: board.Settings{StepMinutes: 30, MinDurationMinutes: 30, RequiredGapMinutes: 15},
	})
}

func TestBoardServiceDayViewGroupsAndAnnotates(t *testing.T) {
	repo := newStubEventRepo(
		boardLesson("a", "t2", 600, 30),
		boardLesson("b", "t1", 540, 60),
		boardLesson("c", "t1", 615, 30),
	)
	svc := newBoardServiceForTest(repo)

	view, err := svc.DayView(context.Background(), "2025-03-14")
	require.NoError(t, err)

	require.Len(t, view.Teachers, 2)
	assert.Equal(t, "t1", view.Teachers[0].TeacherID)
	assert.Equal(t, "t2", view.Teachers[1].TeacherID)

	t1 := view.Teachers[0]
	require.Len(t, t1.Events, 2)
	assert.Equal(t, "09:00", t1.Events[0].StartTime)
	assert.Equal(t, "10:00", t1.Events[0].EndTime)
	require.Len(t, t1.Gaps, 1)
	assert.Equal(t, "EXACT", t1.Gaps[0].State)
}

func TestBoardServiceCreateEventPlacesAndPersists(t *testing.T) {
	repo := newStubEventRepo(boardLesson("a", "t1", 540, 60))
	svc := newBoardServiceForTest(repo)

	created, err := svc.CreateEvent(context.Background(), dto.CreateEventRequest{
		TeacherID:       "t1",
		Date:            "2025-03-14",
		StartTime:       "09:30",
		DurationMinutes: 10,
	})
	require.NoError(t, err)

	// Anchor overlaps the existing event and the duration is below the floor:
	// the slot finder falls back to the tail and the duration clamps to 30.
	assert.Equal(t, 615, created.StartMinute)
	assert.Equal(t, 30, created.DurationMinutes)
	assert.Equal(t, models.EventStatusPlanned, created.Status)

	saved := repo.savedBoard("t1", "2025-03-14")
	require.Len(t, saved, 2)
	assert.Equal(t, created.ID, saved[1].ID)
}

func TestBoardServiceCreateEventForNewTeacher(t *testing.T) {
	repo := newStubEventRepo()
	svc := newBoardServiceForTest(repo)

	created, err := svc.CreateEvent(context.Background(), dto.CreateEventRequest{
		TeacherID:       "t9",
		Date:            "2025-03-14",
		StartTime:       "08:00",
		DurationMinutes: 45,
		Location:        "Annex",
	})
	require.NoError(t, err)
	assert.Equal(t, 480, created.StartMinute)

	view, err := svc.TeacherView(context.Background(), "2025-03-14", "t9")
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
}

func TestBoardServiceMoveEventCascadesAndPersists(t *testing.T) {
	repo := newStubEventRepo(
		boardLesson("a", "t1", 540, 60),
		boardLesson("b", "t1", 600, 30),
	)
	svc := newBoardServiceForTest(repo)

	view, err := svc.MoveEvent(context.Background(), "2025-03-14", "t1", "a", "LATER")
	require.NoError(t, err)

	require.Len(t, view.Events, 2)
	assert.Equal(t, 570, view.Events[0].StartMinute)
	assert.Equal(t, 630, view.Events[1].StartMinute)

	saved := repo.savedBoard("t1", "2025-03-14")
	require.Len(t, saved, 2)
	assert.Equal(t, 570, saved[0].StartMinute)
	assert.Equal(t, 630, saved[1].StartMinute)
}

func TestBoardServiceMoveEventRejectsUnknownDirection(t *testing.T) {
	repo := newStubEventRepo(boardLesson("a", "t1", 540, 60))
	svc := newBoardServiceForTest(repo)

	_, err := svc.MoveEvent(context.Background(), "2025-03-14", "t1", "a", "SIDEWAYS")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBoardServiceRemoveEventNotFound(t *testing.T) {
	repo := newStubEventRepo(boardLesson("a", "t1", 540, 60))
	svc := newBoardServiceForTest(repo)

	_, err := svc.RemoveEvent(context.Background(), "2025-03-14", "t1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.savedBoard("t1", "2025-03-14"))
}

func TestBoardServiceRemoveEventRecompacts(t *testing.T) {
	repo := newStubEventRepo(
		boardLesson("a", "t1", 540, 30),
		boardLesson("b", "t1", 600, 30),
	)
	svc := newBoardServiceForTest(repo)

	view, err := svc.RemoveEvent(context.Background(), "2025-03-14", "t1", "a")
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	assert.Equal(t, 570, view.Events[0].StartMinute)
}

func TestBoardServiceMutationOnUnknownTeacherIsNoOp(t *testing.T) {
	repo := newStubEventRepo(boardLesson("a", "t1", 540, 60))
	svc := newBoardServiceForTest(repo)

	view, err := svc.MoveEvent(context.Background(), "2025-03-14", "t404", "a", "LATER")
	require.NoError(t, err)
	assert.Empty(t, view.Events)
	assert.Nil(t, repo.savedBoard("t404", "2025-03-14"))
}

func TestBoardServiceRejectsMalformedDate(t *testing.T) {
	svc := newBoardServiceForTest(newStubEventRepo())

	_, err := svc.DayView(context.Background(), "14-03-2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBoardServiceSetStatusRejectsUnknownValue(t *testing.T) {
	repo := newStubEventRepo(boardLesson("a", "t1", 540, 60))
	svc := newBoardServiceForTest(repo)

	_, err := svc.SetEventStatus(context.Background(), "2025-03-14", "t1", "a", "MAYBE")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBoardServicePersistFailureSurfacesInternal(t *testing.T) {
	repo := newStubEventRepo(boardLesson("a", "t1", 540, 60))
	repo.failSave = true
	svc := newBoardServiceForTest(repo)

	_, err := svc.MoveEvent(context.Background(), "2025-03-14", "t1", "a", "LATER")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
