package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolops/board-api/internal/models"
)

// EventRepository persists day-board lesson events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, teacher_id, date, start_minute, duration_minutes, location, status, created_at, updated_at`

// ListByDate returns every event on the given calendar day, grouped by
// teacher and ordered by start minute within each teacher.
func (r *EventRepository) ListByDate(ctx context.Context, date string) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM board_events WHERE date = $1 ORDER BY teacher_id, start_minute`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, date); err != nil {
		return nil, fmt.Errorf("list events for %s: %w", date, err)
	}
	return events, nil
}

// ListByTeacherDate returns one teacher's events for the day, ordered by start.
func (r *EventRepository) ListByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM board_events WHERE teacher_id = $1 AND date = $2 ORDER BY start_minute`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, teacherID, date); err != nil {
		return nil, fmt.Errorf("list events for teacher %s on %s: %w", teacherID, date, err)
	}
	return events, nil
}

// List returns events matching the filter, ordered by teacher then start.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM board_events", eventColumns))

	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY teacher_id, start_minute")

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Insert creates a new event row.
func (r *EventRepository) Insert(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = models.EventStatusPlanned
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO board_events
	(id, teacher_id, date, start_minute, duration_minutes, location, status, created_at, updated_at)
	VALUES (:id, :teacher_id, :date, :start_minute, :duration_minutes, :location, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Delete removes an event row. Missing ids surface as sql.ErrNoRows.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM board_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check event delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveBoard replaces one teacher-day's rows with the given events in a single
// transaction. The board engine is the source of truth for ordering and
// timing, so a full rewrite is simpler and safer than diffing row by row.
func (r *EventRepository) SaveBoard(ctx context.Context, teacherID, date string, events []models.Event) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save board: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_events WHERE teacher_id = $1 AND date = $2`, teacherID, date); err != nil {
		return fmt.Errorf("clear board %s/%s: %w", teacherID, date, err)
	}

	const insert = `INSERT INTO board_events
	(id, teacher_id, date, start_minute, duration_minutes, location, status, created_at, updated_at)
	VALUES (:id, :teacher_id, :date, :start_minute, :duration_minutes, :location, :status, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range events {
		event := events[i]
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = now
		}
		event.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, event); err != nil {
			return fmt.Errorf("write board event %s: %w", event.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save board: %w", err)
	}
	return nil
}

// ApplyChanges writes a batch of re-timed events in one transaction. Used when
// a global adjustment session commits its collected diff.
func (r *EventRepository) ApplyChanges(ctx context.Context, changes []models.EventChange) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply changes: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE board_events SET start_minute = $1, duration_minutes = $2, updated_at = $3 WHERE id = $4`
	now := time.Now().UTC()
	for _, change := range changes {
		if _, err := tx.ExecContext(ctx, query, change.StartMinute, change.DurationMinutes, now, change.EventID); err != nil {
			return fmt.Errorf("apply change for event %s: %w", change.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply changes: %w", err)
	}
	return nil
}

// TeachersOnDate lists the distinct teacher ids with at least one event that day.
func (r *EventRepository) TeachersOnDate(ctx context.Context, date string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT teacher_id FROM board_events WHERE date = $1 ORDER BY teacher_id`, date); err != nil {
		return nil, fmt.Errorf("list teachers for %s: %w", date, err)
	}
	return ids, nil
}
