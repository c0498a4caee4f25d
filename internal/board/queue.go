package board

import (
	"fmt"
	"sort"

	"github.com/schoolops/board-api/internal/models"
)

// Queue is one teacher's ordered list of events for a single day. Events are
// held by value in start-time order with an id index, so positional
// neighbours are plain index arithmetic and no link pointers need maintaining.
//
// The queue owns its storage exclusively: events passed in are copied, and
// Events() hands back copies, so callers can never alias internal state.
// It is not safe for concurrent writers; the owning board serialises access.
type Queue struct {
	ownerID string
	events  []models.Event
	index   map[string]int
}

// NewQueue builds a queue for a teacher from persisted events, sorted by
// start time ascending.
func NewQueue(ownerID string, events []models.Event) *Queue {
	q := &Queue{
		ownerID: ownerID,
		events:  make([]models.Event, len(events)),
		index:   make(map[string]int, len(events)),
	}
	copy(q.events, events)
	sort.SliceStable(q.events, func(i, j int) bool {
		return q.events[i].StartMinute < q.events[j].StartMinute
	})
	q.reindex()
	return q
}

// OwnerID returns the teacher this queue belongs to.
func (q *Queue) OwnerID() string {
	return q.ownerID
}

// Len returns the number of events in the queue.
func (q *Queue) Len() int {
	return len(q.events)
}

// Events returns an ordered head-to-tail copy of the queue.
func (q *Queue) Events() []models.Event {
	out := make([]models.Event, len(q.events))
	copy(out, q.events)
	return out
}

// Get returns the event with the given id.
func (q *Queue) Get(id string) (models.Event, bool) {
	i, ok := q.index[id]
	if !ok {
		return models.Event{}, false
	}
	return q.events[i], true
}

// IndexOf returns the position of an event, or -1 when absent.
func (q *Queue) IndexOf(id string) int {
	i, ok := q.index[id]
	if !ok {
		return -1
	}
	return i
}

// At returns the event at position i.
func (q *Queue) At(i int) (models.Event, bool) {
	if i < 0 || i >= len(q.events) {
		return models.Event{}, false
	}
	return q.events[i], true
}

// First returns the head event.
func (q *Queue) First() (models.Event, bool) {
	return q.At(0)
}

// Last returns the tail event.
func (q *Queue) Last() (models.Event, bool) {
	return q.At(len(q.events) - 1)
}

// InsertAtHead prepends an event. Slot choice is the caller's job; no
// ordering validation happens here.
func (q *Queue) InsertAtHead(ev models.Event) error {
	if _, exists := q.index[ev.ID]; exists {
		return fmt.Errorf("duplicate event id %s", ev.ID)
	}
	q.events = append([]models.Event{ev}, q.events...)
	q.reindex()
	return nil
}

// InsertAtTail appends an event.
func (q *Queue) InsertAtTail(ev models.Event) error {
	if _, exists := q.index[ev.ID]; exists {
		return fmt.Errorf("duplicate event id %s", ev.ID)
	}
	q.events = append(q.events, ev)
	q.index[ev.ID] = len(q.events) - 1
	return nil
}

// RemoveByID unlinks and returns the event. Neighbours are not re-timed;
// the editor decides whether and how to recompact.
func (q *Queue) RemoveByID(id string) (models.Event, bool) {
	i, ok := q.index[id]
	if !ok {
		return models.Event{}, false
	}
	removed := q.events[i]
	q.events = append(q.events[:i], q.events[i+1:]...)
	q.reindex()
	return removed, true
}

// RebuildFromOrder relinks the queue to an explicit order. The id list must
// cover the queue exactly; event records keep their identity and fields.
func (q *Queue) RebuildFromOrder(ids []string) error {
	if len(ids) != len(q.events) {
		return fmt.Errorf("order has %d ids, queue has %d events", len(ids), len(q.events))
	}
	rebuilt := make([]models.Event, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		i, ok := q.index[id]
		if !ok || seen[id] {
			return fmt.Errorf("order does not match queue membership: %s", id)
		}
		seen[id] = true
		rebuilt = append(rebuilt, q.events[i])
	}
	q.events = rebuilt
	q.reindex()
	return nil
}

// CascadeShift shifts the named event and every successor by delta minutes,
// unconditionally, to the end of the queue. Callers gate the trigger via the
// adjacency test; once started the walk never stops partway.
func (q *Queue) CascadeShift(fromID string, delta int) {
	i, ok := q.index[fromID]
	if !ok || delta == 0 {
		return
	}
	for ; i < len(q.events); i++ {
		q.events[i].StartMinute += delta
	}
}

// SetStart writes a new start minute without reordering.
func (q *Queue) SetStart(id string, startMinute int) bool {
	i, ok := q.index[id]
	if !ok {
		return false
	}
	q.events[i].StartMinute = startMinute
	return true
}

// SetDuration writes a new duration.
func (q *Queue) SetDuration(id string, durationMinutes int) bool {
	i, ok := q.index[id]
	if !ok {
		return false
	}
	q.events[i].DurationMinutes = durationMinutes
	return true
}

// SetLocation writes a new location label.
func (q *Queue) SetLocation(id, location string) bool {
	i, ok := q.index[id]
	if !ok {
		return false
	}
	q.events[i].Location = location
	return true
}

// SetStatus writes a new lifecycle status.
func (q *Queue) SetStatus(id string, status models.EventStatus) bool {
	i, ok := q.index[id]
	if !ok {
		return false
	}
	q.events[i].Status = status
	return true
}

func (q *Queue) reindex() {
	if q.index == nil || len(q.index) > 0 {
		q.index = make(map[string]int, len(q.events))
	}
	for i, ev := range q.events {
		q.index[ev.ID] = i
	}
}
