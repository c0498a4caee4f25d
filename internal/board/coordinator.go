package board

import (
	"sort"

	"go.uber.org/zap"

	"github.com/schoolops/board-api/internal/models"
)

// adjustmentSession is the transient state of one batch edit. It exists only
// between enter and exit; every field is dropped on exit.
type adjustmentSession struct {
	pending        map[string]struct{}
	snapshot       map[string][]models.Event
	locked         bool
	targetTime     *int
	targetLocation *string
}

// Coordinator runs the cross-teacher batch adjustment state machine: it
// snapshots opted-in queues on entry, applies synchronized time/location
// changes through each teacher's editor, and can diff or roll back against
// the snapshot. Teachers are processed independently; only the usual
// head-to-tail cascade order holds within one queue.
type Coordinator struct {
	editors  map[string]*Editor
	settings Settings
	logger   *zap.Logger
	session  *adjustmentSession
}

// NewCoordinator wires a coordinator over per-teacher editors.
func NewCoordinator(editors map[string]*Editor, settings Settings, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		editors:  editors,
		settings: settings.WithDefaults(),
		logger:   logger,
	}
}

// Active reports whether an adjustment session is running.
func (c *Coordinator) Active() bool {
	return c.session != nil
}

// Locked reports the synchronized-mode flag.
func (c *Coordinator) Locked() bool {
	return c.session != nil && c.session.locked
}

// PendingTeachers returns the opted-in teacher ids in stable order.
func (c *Coordinator) PendingTeachers() []string {
	if c.session == nil {
		return nil
	}
	ids := make([]string, 0, len(c.session.pending))
	for id := range c.session.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TargetTime returns the batch-proposed start minute, when set.
func (c *Coordinator) TargetTime() (int, bool) {
	if c.session == nil || c.session.targetTime == nil {
		return 0, false
	}
	return *c.session.targetTime, true
}

// TargetLocation returns the batch-proposed location, when set.
func (c *Coordinator) TargetLocation() (string, bool) {
	if c.session == nil || c.session.targetLocation == nil {
		return "", false
	}
	return *c.session.targetLocation, true
}

// SnapshotFor returns the deep copy taken for a teacher at session entry.
func (c *Coordinator) SnapshotFor(teacherID string) ([]models.Event, bool) {
	if c.session == nil {
		return nil, false
	}
	events, ok := c.session.snapshot[teacherID]
	if !ok {
		return nil, false
	}
	out := make([]models.Event, len(events))
	copy(out, events)
	return out, true
}

// EnterAdjustmentMode opens a session: every teacher with at least one event
// is opted in, each queue is deep-copied, and the initial targets are derived
// from the live boards. Re-entering an active session is a no-op.
func (c *Coordinator) EnterAdjustmentMode() {
	if c.session != nil {
		return
	}
	session := &adjustmentSession{
		pending:  make(map[string]struct{}),
		snapshot: make(map[string][]models.Event),
	}
	for id, editor := range c.editors {
		if editor.Queue().Len() == 0 {
			continue
		}
		session.pending[id] = struct{}{}
		session.snapshot[id] = editor.Queue().Events()
	}
	if len(session.pending) == 0 {
		c.logger.Debug("adjustment mode not entered: no populated queues")
		return
	}
	c.session = session
	if earliest, ok := c.minEarliestStart(); ok {
		session.targetTime = &earliest
	}
	if location, ok := c.dominantLocation(); ok {
		session.targetLocation = &location
	}
	c.logger.Info("adjustment mode entered", zap.Int("pending", len(session.pending)))
}

// ExitAdjustmentMode drops the session unconditionally: pending set,
// snapshots, lock, and both targets.
func (c *Coordinator) ExitAdjustmentMode() {
	if c.session == nil {
		return
	}
	c.session = nil
	c.logger.Info("adjustment mode exited")
}

// OptIn adds a teacher to the pending set. A teacher joining after entry has
// no entry-time snapshot, so one is taken now; discard restores them to their
// opt-in state rather than not at all.
func (c *Coordinator) OptIn(teacherID string) {
	if c.session == nil {
		return
	}
	editor, ok := c.editors[teacherID]
	if !ok {
		return
	}
	if _, already := c.session.pending[teacherID]; already {
		return
	}
	c.session.pending[teacherID] = struct{}{}
	if _, snapped := c.session.snapshot[teacherID]; !snapped {
		c.session.snapshot[teacherID] = editor.Queue().Events()
	}
}

// OptOut removes a teacher from the pending set. Removing the last teacher
// exits the session, exactly as an explicit exit would.
func (c *Coordinator) OptOut(teacherID string) {
	if c.session == nil {
		return
	}
	delete(c.session.pending, teacherID)
	if len(c.session.pending) == 0 {
		c.ExitAdjustmentMode()
	}
}

// ApplyTime re-anchors every pending teacher whose earliest event starts at
// or before the new time. Teachers already scheduled after it are never moved
// backward. The target updates regardless of lock state.
func (c *Coordinator) ApplyTime(newTime int) {
	if c.session == nil {
		return
	}
	for _, id := range c.PendingTeachers() {
		editor, ok := c.editors[id]
		if !ok {
			continue
		}
		first, ok := editor.Queue().First()
		if !ok {
			continue
		}
		if first.StartMinute <= newTime {
			editor.Reanchor(newTime)
		}
	}
	t := newTime
	c.session.targetTime = &t
}

// Adapt toggles the synchronized lock. Locking first pulls every pending
// teacher to the minimum earliest start among them; unlocking just clears
// the flag.
func (c *Coordinator) Adapt() {
	if c.session == nil {
		return
	}
	if c.session.locked {
		c.session.locked = false
		return
	}
	if earliest, ok := c.minEarliestStart(); ok {
		for _, id := range c.PendingTeachers() {
			editor, ok := c.editors[id]
			if !ok {
				continue
			}
			if _, hasFirst := editor.Queue().First(); hasFirst {
				editor.Reanchor(earliest)
			}
		}
	}
	c.session.locked = true
}

// ApplyLocation rewrites every pending teacher's every event location and
// records the new target. Lock state is unaffected.
func (c *Coordinator) ApplyLocation(location string) {
	if c.session == nil {
		return
	}
	for _, id := range c.PendingTeachers() {
		if editor, ok := c.editors[id]; ok {
			editor.SetLocationAll(location)
		}
	}
	loc := location
	c.session.targetLocation = &loc
}

// Discard restores start, duration, and location on every currently-present
// event from the snapshot, matched by id. Events created after entry have no
// snapshot entry and are kept as-is. Calling it twice is a no-op.
func (c *Coordinator) Discard() {
	if c.session == nil {
		return
	}
	for _, id := range c.PendingTeachers() {
		editor, ok := c.editors[id]
		if !ok {
			continue
		}
		queue := editor.Queue()
		snapshot, ok := c.session.snapshot[id]
		if !ok {
			continue
		}
		for _, snap := range snapshot {
			if _, present := queue.Get(snap.ID); !present {
				continue
			}
			queue.SetStart(snap.ID, snap.StartMinute)
			queue.SetDuration(snap.ID, snap.DurationMinutes)
			queue.SetLocation(snap.ID, snap.Location)
		}
	}
}

// CollectChanges diffs every pending teacher's live queue against its
// snapshot by event id and returns the entries whose timing differs. This is
// the hand-off to persistence; the coordinator never stores anything itself.
func (c *Coordinator) CollectChanges() []models.EventChange {
	if c.session == nil {
		return nil
	}
	var changes []models.EventChange
	for _, id := range c.PendingTeachers() {
		editor, ok := c.editors[id]
		if !ok {
			continue
		}
		snapshot := make(map[string]models.Event, len(c.session.snapshot[id]))
		for _, snap := range c.session.snapshot[id] {
			snapshot[snap.ID] = snap
		}
		for _, ev := range editor.Queue().Events() {
			snap, ok := snapshot[ev.ID]
			if !ok {
				continue
			}
			if snap.StartMinute == ev.StartMinute && snap.DurationMinutes == ev.DurationMinutes {
				continue
			}
			changes = append(changes, models.EventChange{
				EventID:         ev.ID,
				TeacherID:       id,
				StartMinute:     ev.StartMinute,
				DurationMinutes: ev.DurationMinutes,
			})
		}
	}
	return changes
}

// minEarliestStart finds the minimum earliest start across pending queues.
func (c *Coordinator) minEarliestStart() (int, bool) {
	if c.session == nil {
		return 0, false
	}
	found := false
	earliest := 0
	for id := range c.session.pending {
		editor, ok := c.editors[id]
		if !ok {
			continue
		}
		first, ok := editor.Queue().First()
		if !ok {
			continue
		}
		if !found || first.StartMinute < earliest {
			earliest = first.StartMinute
			found = true
		}
	}
	return earliest, found
}

// dominantLocation picks the most frequent location across pending queues,
// ties broken by first-seen order over sorted teacher ids.
func (c *Coordinator) dominantLocation() (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, id := range c.PendingTeachers() {
		editor, ok := c.editors[id]
		if !ok {
			continue
		}
		for _, ev := range editor.Queue().Events() {
			if ev.Location == "" {
				continue
			}
			if counts[ev.Location] == 0 {
				order = append(order, ev.Location)
			}
			counts[ev.Location]++
		}
	}
	best := ""
	bestCount := 0
	for _, location := range order {
		if counts[location] > bestCount {
			best = location
			bestCount = counts[location]
		}
	}
	return best, bestCount > 0
}
