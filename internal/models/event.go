package models

import "time"

// EventStatus represents the lifecycle state of a scheduled lesson.
type EventStatus string

const (
	EventStatusPlanned     EventStatus = "PLANNED"
	EventStatusTBC         EventStatus = "TBC"
	EventStatusCompleted   EventStatus = "COMPLETED"
	EventStatusUncompleted EventStatus = "UNCOMPLETED"
)

// Valid reports whether the status is a member of the closed set.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPlanned, EventStatusTBC, EventStatusCompleted, EventStatusUncompleted:
		return true
	}
	return false
}

// Event is one scheduled lesson occurrence on a teacher's daily board.
// StartMinute counts minutes since midnight of the board's calendar day.
type Event struct {
	ID              string      `db:"id" json:"id"`
	TeacherID       string      `db:"teacher_id" json:"teacher_id"`
	Date            string      `db:"date" json:"date"`
	StartMinute     int         `db:"start_minute" json:"start_minute"`
	DurationMinutes int         `db:"duration_minutes" json:"duration_minutes"`
	Location        string      `db:"location" json:"location"`
	Status          EventStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// End returns the minute the event finishes.
func (e Event) End() int {
	return e.StartMinute + e.DurationMinutes
}

// EventChange is the persistence hand-off for a re-timed event.
type EventChange struct {
	EventID         string `json:"event_id"`
	TeacherID       string `json:"teacher_id"`
	StartMinute     int    `json:"start_minute"`
	DurationMinutes int    `json:"duration_minutes"`
}

// EventFilter describes query params for listing board events.
type EventFilter struct {
	Date      string
	TeacherID string
	Status    string
}
