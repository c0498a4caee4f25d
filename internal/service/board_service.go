package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schoolops/board-api/internal/board"
	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/models"
	appErrors "github.com/schoolops/board-api/pkg/errors"
)

type boardEventRepository interface {
	ListByDate(ctx context.Context, date string) ([]models.Event, error)
	SaveBoard(ctx context.Context, teacherID, date string, events []models.Event) error
	ApplyChanges(ctx context.Context, changes []models.EventChange) error
}

// BoardService owns the resident day boards: it loads a day's events into
// per-teacher queues on first access, routes mutations through each queue's
// editor, and writes the accepted result back to storage. One mutex per day
// board serializes writers; the engine itself assumes a single mutator.
type BoardService struct {
	events    boardEventRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	settings  board.Settings
	cacheTTL  time.Duration
	store     *dayBoardStore
}

// BoardServiceConfig tunes engine knobs and board residency.
type BoardServiceConfig struct {
	Settings board.Settings
	IdleTTL  time.Duration
	CacheTTL time.Duration
}

// NewBoardService wires the board orchestrator.
func NewBoardService(
	events boardEventRepository,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg BoardServiceConfig,
) *BoardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &BoardService{
		events:    events,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		settings:  cfg.Settings.WithDefaults(),
		cacheTTL:  cfg.CacheTTL,
		store:     newDayBoardStore(cfg.IdleTTL),
	}
}

// Settings exposes the engine knobs in effect.
func (s *BoardService) Settings() board.Settings {
	return s.settings
}

// DayView returns every teacher's board for the day, cache-first.
func (s *BoardService) DayView(ctx context.Context, date string) (dto.DayBoardView, error) {
	view, _, err := s.DayViewCached(ctx, date)
	return view, err
}

// DayViewCached is DayView plus a flag telling whether the cache served it.
func (s *BoardService) DayViewCached(ctx context.Context, date string) (dto.DayBoardView, bool, error) {
	if err := validateBoardDate(date); err != nil {
		return dto.DayBoardView{}, false, err
	}

	cacheKey := dayBoardCacheKey(date)
	var cached dto.DayBoardView
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return cached, true, nil
		}
	}

	day, err := s.day(ctx, date)
	if err != nil {
		return dto.DayBoardView{}, false, err
	}

	day.mu.Lock()
	view := dto.DayBoardView{Date: date, Teachers: make([]dto.TeacherBoardView, 0, len(day.editors))}
	for _, teacherID := range sortedTeacherIDs(day.editors) {
		view.Teachers = append(view.Teachers, s.teacherView(date, teacherID, day.editors[teacherID]))
	}
	day.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, view, s.cacheTTL)
	}
	return view, false, nil
}

// TeacherView returns one teacher's board. An unknown teacher yields an empty
// board, not an error; the dashboard renders it as a blank column.
func (s *BoardService) TeacherView(ctx context.Context, date, teacherID string) (dto.TeacherBoardView, error) {
	if err := validateBoardDate(date); err != nil {
		return dto.TeacherBoardView{}, err
	}
	day, err := s.day(ctx, date)
	if err != nil {
		return dto.TeacherBoardView{}, err
	}
	day.mu.Lock()
	defer day.mu.Unlock()
	editor, ok := day.editors[teacherID]
	if !ok {
		return dto.TeacherBoardView{TeacherID: teacherID, Date: date, Events: []dto.EventView{}}, nil
	}
	return s.teacherView(date, teacherID, editor), nil
}

// CreateEvent places a new lesson via the slot heuristic and persists the board.
func (s *BoardService) CreateEvent(ctx context.Context, req dto.CreateEventRequest) (dto.EventView, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EventView{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create event payload")
	}
	if err := validateBoardDate(req.Date); err != nil {
		return dto.EventView{}, err
	}
	anchor, err := board.MinuteOfDay(req.StartTime)
	if err != nil {
		return dto.EventView{}, err
	}
	duration := req.DurationMinutes
	if duration < s.settings.MinDurationMinutes {
		duration = s.settings.MinDurationMinutes
	}
	status := models.EventStatusPlanned
	if req.Status != "" {
		status = models.EventStatus(req.Status)
	}

	event := models.Event{
		ID:              uuid.NewString(),
		TeacherID:       req.TeacherID,
		Date:            req.Date,
		StartMinute:     anchor,
		DurationMinutes: duration,
		Location:        req.Location,
		Status:          status,
	}

	var placed models.Event
	_, err = s.mutate(ctx, req.Date, req.TeacherID, "create", true, func(editor *board.Editor) error {
		var insertErr error
		placed, insertErr = editor.Insert(event)
		return insertErr
	})
	if err != nil {
		return dto.EventView{}, err
	}
	return eventView(placed), nil
}

// MoveEvent nudges an event one step earlier or later.
func (s *BoardService) MoveEvent(ctx context.Context, date, teacherID, eventID, direction string) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "move", false, func(editor *board.Editor) error {
		switch direction {
		case "EARLIER":
			editor.MoveEarlier(eventID)
		case "LATER":
			editor.MoveLater(eventID)
		default:
			return appErrors.Clone(appErrors.ErrValidation, "direction must be EARLIER or LATER")
		}
		return nil
	})
}

// ResizeEvent grows or shrinks an event by one step, floored at the minimum.
func (s *BoardService) ResizeEvent(ctx context.Context, date, teacherID, eventID string, grow bool) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "resize", false, func(editor *board.Editor) error {
		editor.Resize(eventID, grow)
		return nil
	})
}

// ReorderEvent swaps an event with its neighbour.
func (s *BoardService) ReorderEvent(ctx context.Context, date, teacherID, eventID, direction string) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "reorder", false, func(editor *board.Editor) error {
		switch direction {
		case "UP":
			editor.Reorder(eventID, board.DirectionUp)
		case "DOWN":
			editor.Reorder(eventID, board.DirectionDown)
		default:
			return appErrors.Clone(appErrors.ErrValidation, "direction must be UP or DOWN")
		}
		return nil
	})
}

// CloseGap pulls an event flush against its predecessor.
func (s *BoardService) CloseGap(ctx context.Context, date, teacherID, eventID string) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "close_gap", false, func(editor *board.Editor) error {
		editor.CloseGapBefore(eventID)
		return nil
	})
}

// RemoveEvent deletes an event and recompacts the queue behind it.
func (s *BoardService) RemoveEvent(ctx context.Context, date, teacherID, eventID string) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "remove", false, func(editor *board.Editor) error {
		_, err := editor.RemoveWithCascade(eventID)
		return err
	})
}

// SetEventLocation relabels one event.
func (s *BoardService) SetEventLocation(ctx context.Context, date, teacherID, eventID, location string) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "set_location", false, func(editor *board.Editor) error {
		editor.SetLocation(eventID, location)
		return nil
	})
}

// SetQueueLocation relabels every event on one teacher's board.
func (s *BoardService) SetQueueLocation(ctx context.Context, date, teacherID, location string) (dto.TeacherBoardView, error) {
	return s.mutate(ctx, date, teacherID, "set_location_all", false, func(editor *board.Editor) error {
		editor.SetLocationAll(location)
		return nil
	})
}

// SetEventStatus moves an event through its lifecycle.
func (s *BoardService) SetEventStatus(ctx context.Context, date, teacherID, eventID, status string) (dto.TeacherBoardView, error) {
	parsed := models.EventStatus(status)
	if !parsed.Valid() {
		return dto.TeacherBoardView{}, appErrors.Clone(appErrors.ErrValidation, "unknown event status")
	}
	return s.mutate(ctx, date, teacherID, "set_status", false, func(editor *board.Editor) error {
		editor.SetStatus(eventID, parsed)
		return nil
	})
}

// TeacherOfEvent reports which teacher's queue holds the event on a date.
func (s *BoardService) TeacherOfEvent(ctx context.Context, date, eventID string) (string, error) {
	if err := validateBoardDate(date); err != nil {
		return "", err
	}
	day, err := s.day(ctx, date)
	if err != nil {
		return "", err
	}
	day.mu.Lock()
	defer day.mu.Unlock()
	for teacherID, editor := range day.editors {
		if _, ok := editor.Queue().Get(eventID); ok {
			return teacherID, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "event not found on this date")
}

// InvalidateDay drops the cached view for a date. Used after batch commits.
func (s *BoardService) InvalidateDay(ctx context.Context, date string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dayBoardCacheKey(date)+"*")
	}
}

// --- Internals ---

// day returns the resident board for a date, loading it on first access.
func (s *BoardService) day(ctx context.Context, date string) (*dayBoard, error) {
	if existing, ok := s.store.Get(date); ok {
		return existing, nil
	}

	loadStart := time.Now()
	rows, err := s.events.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load board events")
	}
	s.metrics.ObserveDBQuery("board_events_list", time.Since(loadStart))

	byTeacher := make(map[string][]models.Event)
	for _, row := range rows {
		byTeacher[row.TeacherID] = append(byTeacher[row.TeacherID], row)
	}

	editors := make(map[string]*board.Editor, len(byTeacher))
	for teacherID, events := range byTeacher {
		editors[teacherID] = s.newEditor(teacherID, events)
	}

	day := &dayBoard{
		date:        date,
		editors:     editors,
		coordinator: board.NewCoordinator(editors, s.settings, s.logger),
	}
	resident := s.store.Save(day)
	s.metrics.SetBoardsResident(resident)
	return day, nil
}

func (s *BoardService) newEditor(teacherID string, events []models.Event) *board.Editor {
	return board.NewEditor(board.NewQueue(teacherID, events), s.settings, nil, s.logger)
}

// mutate runs one editor operation under the day lock, persists the resulting
// queue, and records mutation metrics including how many events were re-timed.
func (s *BoardService) mutate(ctx context.Context, date, teacherID, op string, createTeacher bool, fn func(*board.Editor) error) (dto.TeacherBoardView, error) {
	if err := validateBoardDate(date); err != nil {
		return dto.TeacherBoardView{}, err
	}
	if teacherID == "" {
		return dto.TeacherBoardView{}, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	day, err := s.day(ctx, date)
	if err != nil {
		return dto.TeacherBoardView{}, err
	}

	day.mu.Lock()
	defer day.mu.Unlock()

	editor, ok := day.editors[teacherID]
	if !ok {
		if !createTeacher {
			return dto.TeacherBoardView{TeacherID: teacherID, Date: date, Events: []dto.EventView{}}, nil
		}
		editor = s.newEditor(teacherID, nil)
		day.editors[teacherID] = editor
	}

	before := startSnapshot(editor.Queue())
	if err := fn(editor); err != nil {
		return dto.TeacherBoardView{}, err
	}

	events := editor.Queue().Events()
	saveStart := time.Now()
	if err := s.events.SaveBoard(ctx, teacherID, date, events); err != nil {
		s.logger.Error("board persist failed",
			zap.String("teacher_id", teacherID),
			zap.String("date", date),
			zap.String("op", op),
			zap.Error(err))
		return dto.TeacherBoardView{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist board")
	}
	s.metrics.ObserveDBQuery("board_save", time.Since(saveStart))

	s.metrics.RecordBoardMutation(op, countRetimed(before, events))
	s.InvalidateDay(ctx, date)
	return s.teacherView(date, teacherID, editor), nil
}

func (s *BoardService) teacherView(date, teacherID string, editor *board.Editor) dto.TeacherBoardView {
	events := editor.Queue().Events()
	view := dto.TeacherBoardView{
		TeacherID: teacherID,
		Date:      date,
		Events:    make([]dto.EventView, 0, len(events)),
	}
	for i, ev := range events {
		view.Events = append(view.Events, eventView(ev))
		if i == 0 {
			continue
		}
		report := board.ClassifyGap(events[i-1], ev, s.settings.RequiredGapMinutes)
		view.Gaps = append(view.Gaps, dto.GapView{
			BeforeEventID: ev.ID,
			State:         string(report.State),
			Minutes:       report.Minutes,
		})
	}
	return view
}

func eventView(ev models.Event) dto.EventView {
	return dto.EventView{
		ID:              ev.ID,
		TeacherID:       ev.TeacherID,
		StartMinute:     ev.StartMinute,
		StartTime:       board.FormatMinute(ev.StartMinute),
		EndTime:         board.FormatMinute(ev.End()),
		DurationMinutes: ev.DurationMinutes,
		Location:        ev.Location,
		Status:          ev.Status,
	}
}

func startSnapshot(q *board.Queue) map[string]int {
	out := make(map[string]int, q.Len())
	for _, ev := range q.Events() {
		out[ev.ID] = ev.StartMinute
	}
	return out
}

// countRetimed counts events present before the mutation whose start changed.
func countRetimed(before map[string]int, after []models.Event) int {
	n := 0
	for _, ev := range after {
		if start, ok := before[ev.ID]; ok && start != ev.StartMinute {
			n++
		}
	}
	return n
}

func sortedTeacherIDs(editors map[string]*board.Editor) []string {
	ids := make([]string, 0, len(editors))
	for id := range editors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validateBoardDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return nil
}

func dayBoardCacheKey(date string) string {
	return fmt.Sprintf("board:%s", date)
}

// --- Resident board store ---

type dayBoard struct {
	date        string
	mu          sync.Mutex
	editors     map[string]*board.Editor
	coordinator *board.Coordinator
	lastAccess  time.Time

	// locationApplied records that the open session ran a batch location
	// change, so commit knows to rewrite whole boards instead of timing only.
	locationApplied bool

	// adjusting mirrors coordinator.Active() for the store sweep, which must
	// not take the day lock. Updated under mu, read atomically.
	adjusting int32
}

func (d *dayBoard) markAdjusting(active bool) {
	var v int32
	if active {
		v = 1
	}
	atomic.StoreInt32(&d.adjusting, v)
}

func (d *dayBoard) isAdjusting() bool {
	return atomic.LoadInt32(&d.adjusting) == 1
}

type dayBoardStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]*dayBoard
}

func newDayBoardStore(ttl time.Duration) *dayBoardStore {
	return &dayBoardStore{
		ttl:   ttl,
		items: make(map[string]*dayBoard),
	}
}

func (s *dayBoardStore) Get(date string) (*dayBoard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	day, ok := s.items[date]
	if !ok {
		return nil, false
	}
	day.lastAccess = time.Now()
	return day, true
}

// Save stores the board and returns the resident count after the write.
func (s *dayBoardStore) Save(day *dayBoard) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	day.lastAccess = time.Now()
	s.items[day.date] = day
	s.sweepLocked()
	return len(s.items)
}

// sweepLocked evicts idle boards. A board with an open adjustment session is
// never evicted.
func (s *dayBoardStore) sweepLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for date, day := range s.items {
		if day.lastAccess.Before(cutoff) && !day.isAdjusting() {
			delete(s.items, date)
		}
	}
}
