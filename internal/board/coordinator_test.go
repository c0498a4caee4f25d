package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/models"
)

func newTestCoordinator(t *testing.T, queues map[string][]models.Event) (*Coordinator, map[string]*Editor) {
	t.Helper()
	editors := make(map[string]*Editor, len(queues))
	for teacherID, events := range queues {
		for i := range events {
			events[i].TeacherID = teacherID
		}
		editors[teacherID] = NewEditor(NewQueue(teacherID, events), slotSettings(), nil, nil)
	}
	return NewCoordinator(editors, slotSettings(), nil), editors
}

func TestEnterAdjustmentModeSnapshotsPopulatedQueues(t *testing.T) {
	coord, _ := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30), lesson("b", 600, 30)},
		"t2": {lesson("c", 660, 45)},
		"t3": nil,
	})

	coord.EnterAdjustmentMode()

	require.True(t, coord.Active())
	assert.False(t, coord.Locked())
	assert.Equal(t, []string{"t1", "t2"}, coord.PendingTeachers())

	target, ok := coord.TargetTime()
	require.True(t, ok)
	assert.Equal(t, 540, target)

	_, ok = coord.SnapshotFor("t3")
	assert.False(t, ok)

	snapshot, ok := coord.SnapshotFor("t1")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, idsOf(snapshot))
}

func TestEnterAdjustmentModeWithoutEventsIsNoOp(t *testing.T) {
	coord, _ := newTestCoordinator(t, map[string][]models.Event{"t1": nil})

	coord.EnterAdjustmentMode()

	assert.False(t, coord.Active())
}

func TestEnterAdjustmentModeIsIdempotentWhileActive(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
	})

	coord.EnterAdjustmentMode()
	editors["t1"].MoveLater("a")
	coord.EnterAdjustmentMode()

	snapshot, ok := coord.SnapshotFor("t1")
	require.True(t, ok)
	assert.Equal(t, 540, snapshot[0].StartMinute, "re-entry must not refresh the snapshot")
}

func TestEnterAdjustmentModePicksDominantLocation(t *testing.T) {
	hall := lesson("a", 540, 30)
	hall2 := lesson("b", 600, 30)
	annex := lesson("c", 540, 30)
	annex.Location = "Annex"

	coord, _ := newTestCoordinator(t, map[string][]models.Event{
		"t1": {hall, hall2},
		"t2": {annex},
	})

	coord.EnterAdjustmentMode()

	location, ok := coord.TargetLocation()
	require.True(t, ok)
	assert.Equal(t, "Main Hall", location)
}

func TestApplyTimeMovesOnlyTeachersAtOrBeforeNewTime(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30), lesson("b", 600, 30)},
		"t2": {lesson("c", 660, 30)},
	})
	coord.EnterAdjustmentMode()

	coord.ApplyTime(600)

	got1 := starts(editors["t1"].Queue())
	assert.Equal(t, 600, got1["a"])
	assert.Equal(t, 660, got1["b"], "internal spacing preserved across the re-anchor")

	got2 := starts(editors["t2"].Queue())
	assert.Equal(t, 660, got2["c"], "a teacher already scheduled later is never pulled back")

	target, ok := coord.TargetTime()
	require.True(t, ok)
	assert.Equal(t, 600, target)
}

func TestApplyTimeSelectionRuleHoldsWhenLocked(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
		"t2": {lesson("b", 700, 30)},
	})
	coord.EnterAdjustmentMode()
	coord.Adapt()
	require.True(t, coord.Locked())
	editors["t2"].Reanchor(700)

	coord.ApplyTime(600)

	assert.Equal(t, 600, starts(editors["t1"].Queue())["a"])
	assert.Equal(t, 700, starts(editors["t2"].Queue())["b"])
}

func TestAdaptLockSynchronizesToEarliestStart(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
		"t2": {lesson("b", 600, 30), lesson("c", 660, 30)},
	})
	coord.EnterAdjustmentMode()

	coord.Adapt()

	require.True(t, coord.Locked())
	assert.Equal(t, 540, starts(editors["t1"].Queue())["a"])
	got2 := starts(editors["t2"].Queue())
	assert.Equal(t, 540, got2["b"])
	assert.Equal(t, 600, got2["c"])
}

func TestAdaptUnlockDoesNotResync(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
		"t2": {lesson("b", 600, 30)},
	})
	coord.EnterAdjustmentMode()
	coord.Adapt()
	editors["t2"].MoveLater("b")

	coord.Adapt()

	assert.False(t, coord.Locked())
	assert.Equal(t, 570, starts(editors["t2"].Queue())["b"], "unlock clears the flag only")
}

func TestApplyLocationRewritesPendingQueues(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30), lesson("b", 600, 30)},
		"t2": {lesson("c", 660, 30)},
	})
	coord.EnterAdjustmentMode()
	coord.Adapt()

	coord.ApplyLocation("Gym")

	for _, teacherID := range []string{"t1", "t2"} {
		for _, ev := range editors[teacherID].Queue().Events() {
			assert.Equal(t, "Gym", ev.Location)
		}
	}
	location, ok := coord.TargetLocation()
	require.True(t, ok)
	assert.Equal(t, "Gym", location)
	assert.True(t, coord.Locked(), "location changes leave the lock alone")
}

func TestDiscardRestoresSnapshotAndIsIdempotent(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30), lesson("b", 600, 30)},
		"t2": {lesson("c", 660, 45)},
	})
	coord.EnterAdjustmentMode()

	editors["t1"].MoveLater("a")
	editors["t1"].Resize("b", true)
	editors["t2"].SetLocation("c", "Annex")
	coord.ApplyTime(700)

	coord.Discard()

	got1 := starts(editors["t1"].Queue())
	assert.Equal(t, 540, got1["a"])
	assert.Equal(t, 600, got1["b"])
	b, _ := editors["t1"].Queue().Get("b")
	assert.Equal(t, 30, b.DurationMinutes)
	c, _ := editors["t2"].Queue().Get("c")
	assert.Equal(t, 660, c.StartMinute)
	assert.Equal(t, "Main Hall", c.Location)

	coord.Discard()
	assert.Equal(t, 540, starts(editors["t1"].Queue())["a"])
	assert.Empty(t, coord.CollectChanges())
}

func TestDiscardKeepsEventsCreatedAfterEntry(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
	})
	coord.EnterAdjustmentMode()

	_, err := editors["t1"].Insert(lesson("late", 700, 30))
	require.NoError(t, err)
	editors["t1"].MoveLater("a")

	coord.Discard()

	assert.Equal(t, 540, starts(editors["t1"].Queue())["a"])
	_, present := editors["t1"].Queue().Get("late")
	assert.True(t, present, "events without a snapshot entry survive discard")
}

func TestOptInAfterEntrySnapshotsAtJoinTime(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
		"t2": nil,
	})
	coord.EnterAdjustmentMode()
	require.Equal(t, []string{"t1"}, coord.PendingTeachers())

	_, err := editors["t2"].Insert(lesson("b", 600, 30))
	require.NoError(t, err)
	coord.OptIn("t2")
	editors["t2"].MoveLater("b")

	coord.Discard()

	assert.Equal(t, 600, starts(editors["t2"].Queue())["b"], "restored to opt-in state, not entry state")
}

func TestOptOutLastTeacherAutoExits(t *testing.T) {
	coord, _ := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
		"t2": {lesson("b", 600, 30)},
	})
	coord.EnterAdjustmentMode()
	coord.Adapt()

	coord.OptOut("t1")
	require.True(t, coord.Active())

	coord.OptOut("t2")

	assert.False(t, coord.Active())
	assert.False(t, coord.Locked())
	_, ok := coord.SnapshotFor("t2")
	assert.False(t, ok)
	_, ok = coord.TargetTime()
	assert.False(t, ok)
}

func TestCollectChangesReportsTimingDiffsOnly(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30), lesson("b", 700, 30)},
	})
	coord.EnterAdjustmentMode()

	editors["t1"].MoveLater("a")
	editors["t1"].SetLocation("b", "Annex")

	changes := coord.CollectChanges()

	require.Len(t, changes, 1)
	assert.Equal(t, models.EventChange{
		EventID:         "a",
		TeacherID:       "t1",
		StartMinute:     570,
		DurationMinutes: 30,
	}, changes[0])
}

func TestCoordinatorIdleCallsAreNoOps(t *testing.T) {
	coord, editors := newTestCoordinator(t, map[string][]models.Event{
		"t1": {lesson("a", 540, 30)},
	})

	coord.ApplyTime(600)
	coord.ApplyLocation("Gym")
	coord.Adapt()
	coord.OptIn("t1")
	coord.Discard()

	assert.False(t, coord.Active())
	assert.Nil(t, coord.CollectChanges())
	assert.Equal(t, 540, starts(editors["t1"].Queue())["a"])
}
