package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/schoolops/board-api/internal/board"
	"github.com/schoolops/board-api/internal/dto"
	appErrors "github.com/schoolops/board-api/pkg/errors"
)

// AdjustmentService drives the cross-teacher batch session over one day board.
// Session mutations stay in memory until Commit; Discard rolls the queues back
// to their snapshots without touching storage.
type AdjustmentService struct {
	boards  *BoardService
	events  boardEventRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAdjustmentService wires the batch session orchestrator.
func NewAdjustmentService(boards *BoardService, events boardEventRepository, metrics *MetricsService, logger *zap.Logger) *AdjustmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentService{boards: boards, events: events, metrics: metrics, logger: logger}
}

// Enter opens a session for the date, opting in every teacher with events.
func (s *AdjustmentService) Enter(ctx context.Context, date string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		day.coordinator.EnterAdjustmentMode()
		day.locationApplied = false
		day.markAdjusting(day.coordinator.Active())
		s.metrics.SetAdjustmentOpen(day.coordinator.Active())
		return nil
	})
}

// Exit drops the session without persisting anything. In-memory queues keep
// whatever the session did to them; callers wanting rollback use Discard first.
func (s *AdjustmentService) Exit(ctx context.Context, date string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		day.coordinator.ExitAdjustmentMode()
		day.locationApplied = false
		day.markAdjusting(false)
		s.metrics.SetAdjustmentOpen(false)
		return nil
	})
}

// OptIn adds a teacher to the pending set.
func (s *AdjustmentService) OptIn(ctx context.Context, date, teacherID string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		day.coordinator.OptIn(teacherID)
		return nil
	})
}

// OptOut removes a teacher; removing the last one ends the session.
func (s *AdjustmentService) OptOut(ctx context.Context, date, teacherID string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		day.coordinator.OptOut(teacherID)
		if !day.coordinator.Active() {
			day.markAdjusting(false)
			s.metrics.SetAdjustmentOpen(false)
		}
		return nil
	})
}

// ApplyTime re-anchors every pending teacher scheduled at or before the time.
func (s *AdjustmentService) ApplyTime(ctx context.Context, date, value string) (dto.AdjustmentStateView, error) {
	minute, err := board.MinuteOfDay(value)
	if err != nil {
		return dto.AdjustmentStateView{}, err
	}
	return s.withDay(ctx, date, func(day *dayBoard) error {
		if !day.coordinator.Active() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "no adjustment session is open")
		}
		day.coordinator.ApplyTime(minute)
		return nil
	})
}

// Adapt toggles the synchronized lock.
func (s *AdjustmentService) Adapt(ctx context.Context, date string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		if !day.coordinator.Active() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "no adjustment session is open")
		}
		day.coordinator.Adapt()
		return nil
	})
}

// ApplyLocation rewrites every pending teacher's locations.
func (s *AdjustmentService) ApplyLocation(ctx context.Context, date, location string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		if !day.coordinator.Active() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "no adjustment session is open")
		}
		day.coordinator.ApplyLocation(location)
		day.locationApplied = true
		return nil
	})
}

// Discard rolls every pending queue back to its snapshot. The session stays open.
func (s *AdjustmentService) Discard(ctx context.Context, date string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(day *dayBoard) error {
		if !day.coordinator.Active() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "no adjustment session is open")
		}
		day.coordinator.Discard()
		return nil
	})
}

// Commit persists the session's collected timing diff, rewrites boards whose
// location labels changed, and closes the session.
func (s *AdjustmentService) Commit(ctx context.Context, date string) (dto.AdjustmentCommitResponse, error) {
	if err := validateBoardDate(date); err != nil {
		return dto.AdjustmentCommitResponse{}, err
	}
	day, err := s.boards.day(ctx, date)
	if err != nil {
		return dto.AdjustmentCommitResponse{}, err
	}

	day.mu.Lock()
	defer day.mu.Unlock()

	if !day.coordinator.Active() {
		return dto.AdjustmentCommitResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no adjustment session is open")
	}

	changes := day.coordinator.CollectChanges()
	pending := day.coordinator.PendingTeachers()
	locationChanged := day.locationApplied

	if err := s.events.ApplyChanges(ctx, changes); err != nil {
		return dto.AdjustmentCommitResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist adjustment changes")
	}
	if locationChanged {
		for _, teacherID := range pending {
			editor, ok := day.editors[teacherID]
			if !ok {
				continue
			}
			if err := s.events.SaveBoard(ctx, teacherID, date, editor.Queue().Events()); err != nil {
				return dto.AdjustmentCommitResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist board locations")
			}
		}
	}

	day.coordinator.ExitAdjustmentMode()
	day.locationApplied = false
	day.markAdjusting(false)
	s.metrics.SetAdjustmentOpen(false)
	s.boards.InvalidateDay(ctx, date)

	s.logger.Info("adjustment session committed",
		zap.String("date", date),
		zap.Int("teachers", len(pending)),
		zap.Int("changes", len(changes)))

	return dto.AdjustmentCommitResponse{Applied: len(changes), Changes: changes}, nil
}

// State reports the session status for the date.
func (s *AdjustmentService) State(ctx context.Context, date string) (dto.AdjustmentStateView, error) {
	return s.withDay(ctx, date, func(*dayBoard) error { return nil })
}

func (s *AdjustmentService) withDay(ctx context.Context, date string, fn func(*dayBoard) error) (dto.AdjustmentStateView, error) {
	if err := validateBoardDate(date); err != nil {
		return dto.AdjustmentStateView{}, err
	}
	day, err := s.boards.day(ctx, date)
	if err != nil {
		return dto.AdjustmentStateView{}, err
	}

	day.mu.Lock()
	defer day.mu.Unlock()

	if err := fn(day); err != nil {
		return dto.AdjustmentStateView{}, err
	}
	return adjustmentState(day.coordinator), nil
}

func adjustmentState(c *board.Coordinator) dto.AdjustmentStateView {
	view := dto.AdjustmentStateView{
		Active:          c.Active(),
		Locked:          c.Locked(),
		PendingTeachers: c.PendingTeachers(),
	}
	if view.PendingTeachers == nil {
		view.PendingTeachers = []string{}
	}
	if minute, ok := c.TargetTime(); ok {
		formatted := board.FormatMinute(minute)
		view.TargetTime = &formatted
	}
	if location, ok := c.TargetLocation(); ok {
		view.TargetLocation = &location
	}
	return view
}
