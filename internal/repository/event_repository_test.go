package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventRows(events ...models.Event) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "date", "start_minute", "duration_minutes", "location", "status", "created_at", "updated_at"})
	for _, ev := range events {
		rows.AddRow(ev.ID, ev.TeacherID, ev.Date, ev.StartMinute, ev.DurationMinutes, ev.Location, ev.Status, time.Now(), time.Now())
	}
	return rows
}

func TestEventRepositoryListByTeacherDate(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, date, start_minute")).
		WithArgs("teacher-1", "2025-03-14").
		WillReturnRows(eventRows(
			models.Event{ID: "ev-1", TeacherID: "teacher-1", Date: "2025-03-14", StartMinute: 540, DurationMinutes: 60, Location: "Main Hall", Status: models.EventStatusPlanned},
			models.Event{ID: "ev-2", TeacherID: "teacher-1", Date: "2025-03-14", StartMinute: 600, DurationMinutes: 30, Location: "Main Hall", Status: models.EventStatusPlanned},
		))

	events, err := repo.ListByTeacherDate(context.Background(), "teacher-1", "2025-03-14")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "ev-1", events[0].ID)
	require.Equal(t, 600, events[1].StartMinute)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryInsertFillsDefaults(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{
		TeacherID:       "teacher-1",
		Date:            "2025-03-14",
		StartMinute:     540,
		DurationMinutes: 45,
		Location:        "Annex",
	}
	require.NoError(t, repo.Insert(context.Background(), event))
	require.NotEmpty(t, event.ID)
	require.Equal(t, models.EventStatusPlanned, event.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM board_events WHERE id")).
		WithArgs("ev-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ev-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositorySaveBoardRunsInTransaction(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM board_events WHERE teacher_id")).
		WithArgs("teacher-1", "2025-03-14").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	events := []models.Event{
		{ID: "ev-1", TeacherID: "teacher-1", Date: "2025-03-14", StartMinute: 540, DurationMinutes: 60, Location: "Main Hall", Status: models.EventStatusPlanned},
		{ID: "ev-2", TeacherID: "teacher-1", Date: "2025-03-14", StartMinute: 600, DurationMinutes: 30, Location: "Main Hall", Status: models.EventStatusTBC},
	}
	require.NoError(t, repo.SaveBoard(context.Background(), "teacher-1", "2025-03-14", events))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositorySaveBoardRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM board_events WHERE teacher_id")).
		WithArgs("teacher-1", "2025-03-14").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_events")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	events := []models.Event{
		{ID: "ev-1", TeacherID: "teacher-1", Date: "2025-03-14", StartMinute: 540, DurationMinutes: 60},
	}
	require.Error(t, repo.SaveBoard(context.Background(), "teacher-1", "2025-03-14", events))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryApplyChanges(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE board_events SET start_minute")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE board_events SET start_minute")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changes := []models.EventChange{
		{EventID: "ev-1", TeacherID: "teacher-1", StartMinute: 600, DurationMinutes: 60},
		{EventID: "ev-2", TeacherID: "teacher-2", StartMinute: 630, DurationMinutes: 30},
	}
	require.NoError(t, repo.ApplyChanges(context.Background(), changes))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryApplyChangesEmptyIsNoOp(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	require.NoError(t, repo.ApplyChanges(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
