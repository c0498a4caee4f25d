package dto

import "github.com/schoolops/board-api/internal/models"

// CreateEventRequest adds a lesson to a teacher's day board. StartTime is the
// desired anchor; the slot finder decides the final position.
type CreateEventRequest struct {
	TeacherID       string `json:"teacher_id" validate:"required"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
	Location        string `json:"location"`
	Status          string `json:"status" validate:"omitempty,oneof=PLANNED TBC COMPLETED UNCOMPLETED"`
}

// MoveEventRequest nudges an event one step earlier or later.
type MoveEventRequest struct {
	Direction string `json:"direction" validate:"required,oneof=EARLIER LATER"`
}

// ResizeEventRequest grows or shrinks an event by one step.
type ResizeEventRequest struct {
	Grow bool `json:"grow"`
}

// ReorderEventRequest swaps an event with its neighbour.
type ReorderEventRequest struct {
	Direction string `json:"direction" validate:"required,oneof=UP DOWN"`
}

// SetLocationRequest relabels one event or, on the batch endpoint, a whole queue.
type SetLocationRequest struct {
	Location string `json:"location" validate:"required"`
}

// SetStatusRequest moves an event through its lifecycle.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PLANNED TBC COMPLETED UNCOMPLETED"`
}

// EventView is the API shape of one board event.
type EventView struct {
	ID              string             `json:"id"`
	TeacherID       string             `json:"teacher_id"`
	StartMinute     int                `json:"start_minute"`
	StartTime       string             `json:"start_time"`
	EndTime         string             `json:"end_time"`
	DurationMinutes int                `json:"duration_minutes"`
	Location        string             `json:"location"`
	Status          models.EventStatus `json:"status"`
}

// GapView describes the spacing between an event and its predecessor.
type GapView struct {
	BeforeEventID string `json:"before_event_id"`
	State         string `json:"state"`
	Minutes       int    `json:"minutes"`
}

// TeacherBoardView is one teacher's ordered queue plus gap annotations.
type TeacherBoardView struct {
	TeacherID string      `json:"teacher_id"`
	Date      string      `json:"date"`
	Events    []EventView `json:"events"`
	Gaps      []GapView   `json:"gaps,omitempty"`
}

// DayBoardView aggregates every teacher's board for one calendar day.
type DayBoardView struct {
	Date     string             `json:"date"`
	Teachers []TeacherBoardView `json:"teachers"`
}

// AdjustmentTimeRequest proposes a synchronized start time.
type AdjustmentTimeRequest struct {
	Time string `json:"time" validate:"required"`
}

// AdjustmentLocationRequest proposes a shared location.
type AdjustmentLocationRequest struct {
	Location string `json:"location" validate:"required"`
}

// AdjustmentStateView reports the batch session status.
type AdjustmentStateView struct {
	Active          bool     `json:"active"`
	Locked          bool     `json:"locked"`
	PendingTeachers []string `json:"pending_teachers"`
	TargetTime      *string  `json:"target_time,omitempty"`
	TargetLocation  *string  `json:"target_location,omitempty"`
}

// AdjustmentCommitResponse reports what a committed session wrote.
type AdjustmentCommitResponse struct {
	Applied int                  `json:"applied"`
	Changes []models.EventChange `json:"changes"`
}

// ExportBoardRequest asks for an asynchronous day-sheet export.
type ExportBoardRequest struct {
	Date      string `json:"date" validate:"required"`
	TeacherID string `json:"teacher_id"`
	Format    string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobView describes an export job and, once done, its download URL.
type ExportJobView struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	Format    string              `json:"format"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
