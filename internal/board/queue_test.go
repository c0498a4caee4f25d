package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/models"
)

func TestNewQueueSortsByStart(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{
		lesson("b", 660, 30),
		lesson("a", 540, 60),
		lesson("c", 700, 30),
	})

	events := q.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(events))
}

func TestQueueEventsReturnsIndependentCopy(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{lesson("a", 540, 60)})

	view := q.Events()
	view[0].StartMinute = 0

	got, ok := q.Get("a")
	require.True(t, ok)
	assert.Equal(t, 540, got.StartMinute)
}

func TestQueueInsertAtHeadAndTail(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{lesson("b", 600, 30)})

	require.NoError(t, q.InsertAtHead(lesson("a", 540, 30)))
	require.NoError(t, q.InsertAtTail(lesson("c", 700, 30)))

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(q.Events()))
	assert.Equal(t, 0, q.IndexOf("a"))
	assert.Equal(t, 2, q.IndexOf("c"))
}

func TestQueueRejectsDuplicateID(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{lesson("a", 540, 30)})

	assert.Error(t, q.InsertAtHead(lesson("a", 500, 30)))
	assert.Error(t, q.InsertAtTail(lesson("a", 600, 30)))
	assert.Equal(t, 1, q.Len())
}

func TestQueueRemoveByID(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{
		lesson("a", 540, 30),
		lesson("b", 600, 30),
		lesson("c", 700, 30),
	})

	removed, ok := q.RemoveByID("b")
	require.True(t, ok)
	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, []string{"a", "c"}, idsOf(q.Events()))

	// Neighbours keep their timing; recompaction is the editor's job.
	first, _ := q.First()
	last, _ := q.Last()
	assert.Equal(t, 540, first.StartMinute)
	assert.Equal(t, 700, last.StartMinute)

	_, ok = q.RemoveByID("missing")
	assert.False(t, ok)
}

func TestQueueRebuildFromOrder(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{
		lesson("a", 540, 30),
		lesson("b", 600, 30),
	})

	require.NoError(t, q.RebuildFromOrder([]string{"b", "a"}))
	assert.Equal(t, []string{"b", "a"}, idsOf(q.Events()))

	// Identity preserved, fields untouched.
	b, ok := q.Get("b")
	require.True(t, ok)
	assert.Equal(t, 600, b.StartMinute)
}

func TestQueueRebuildFromOrderRejectsMismatch(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{
		lesson("a", 540, 30),
		lesson("b", 600, 30),
	})

	assert.Error(t, q.RebuildFromOrder([]string{"a"}))
	assert.Error(t, q.RebuildFromOrder([]string{"a", "x"}))
	assert.Error(t, q.RebuildFromOrder([]string{"a", "a"}))
}

func TestQueueCascadeShiftIsUnconditional(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{
		lesson("a", 540, 60),
		lesson("b", 600, 30),
		lesson("c", 700, 30),
	})

	q.CascadeShift("b", 30)

	a, _ := q.Get("a")
	b, _ := q.Get("b")
	c, _ := q.Get("c")
	assert.Equal(t, 540, a.StartMinute)
	assert.Equal(t, 630, b.StartMinute)
	assert.Equal(t, 730, c.StartMinute)
}

func TestQueueFieldWrites(t *testing.T) {
	q := NewQueue("teacher-1", []models.Event{lesson("a", 540, 60)})

	require.True(t, q.SetStart("a", 570))
	require.True(t, q.SetDuration("a", 90))
	require.True(t, q.SetLocation("a", "Annex"))
	require.True(t, q.SetStatus("a", models.EventStatusCompleted))

	ev, _ := q.Get("a")
	assert.Equal(t, 570, ev.StartMinute)
	assert.Equal(t, 90, ev.DurationMinutes)
	assert.Equal(t, "Annex", ev.Location)
	assert.Equal(t, models.EventStatusCompleted, ev.Status)

	assert.False(t, q.SetStart("missing", 0))
}

func idsOf(events []models.Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}
