package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolops/board-api/internal/models"
)

func lesson(id string, start, duration int) models.Event {
	return models.Event{
		ID:              id,
		TeacherID:       "teacher-1",
		Date:            "2025-03-14",
		StartMinute:     start,
		DurationMinutes: duration,
		Location:        "Main Hall",
		Status:          models.EventStatusPlanned,
	}
}

func TestClassifyGapOverlap(t *testing.T) {
	report := ClassifyGap(lesson("a", 540, 60), lesson("b", 570, 30), 15)
	assert.Equal(t, GapOverlap, report.State)
	assert.Equal(t, 30, report.Minutes)
}

func TestClassifyGapExact(t *testing.T) {
	report := ClassifyGap(lesson("a", 540, 60), lesson("b", 615, 30), 15)
	assert.Equal(t, GapExact, report.State)
	assert.Equal(t, 0, report.Minutes)
}

func TestClassifyGapOpen(t *testing.T) {
	report := ClassifyGap(lesson("a", 540, 60), lesson("b", 660, 30), 15)
	assert.Equal(t, GapOpen, report.State)
	assert.Equal(t, 45, report.Minutes)
}

func TestClassifyGapTighterThanRequired(t *testing.T) {
	report := ClassifyGap(lesson("a", 540, 60), lesson("b", 605, 30), 15)
	assert.Equal(t, GapOpen, report.State)
	assert.Equal(t, -10, report.Minutes)
}

func TestClassifyGapBackToBack(t *testing.T) {
	report := ClassifyGap(lesson("a", 540, 60), lesson("b", 600, 30), 15)
	assert.Equal(t, GapOpen, report.State)
	assert.Equal(t, -15, report.Minutes)
}
