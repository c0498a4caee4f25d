package board

import (
	"go.uber.org/zap"

	"github.com/schoolops/board-api/internal/models"
	appErrors "github.com/schoolops/board-api/pkg/errors"
)

// MoveDirection selects a neighbour for reorder operations.
type MoveDirection string

const (
	DirectionUp   MoveDirection = "UP"
	DirectionDown MoveDirection = "DOWN"
)

// moveLaterLimit keeps an event's start out of the last hour of the day.
// The event's own duration is deliberately not checked; a transient
// past-midnight end is tolerated until the caller persists.
const moveLaterLimit = 1380

// Editor is the mutation facade over one teacher's queue. It applies the
// business rules (step size, bounds, adjacency-gated cascades) and fires the
// notify callback after every accepted mutation so a rendering layer can
// re-read the queue.
//
// Unknown ids are silent no-ops everywhere except RemoveWithCascade, which
// reports a typed not-found so callers skip the persistence round-trip.
type Editor struct {
	queue    *Queue
	settings Settings
	notify   func()
	logger   *zap.Logger
}

// NewEditor wires an editor for a queue with explicit settings.
func NewEditor(queue *Queue, settings Settings, notify func(), logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		queue:    queue,
		settings: settings.WithDefaults(),
		notify:   notify,
		logger:   logger,
	}
}

// Queue exposes the underlying queue for read access.
func (e *Editor) Queue() *Queue {
	return e.queue
}

// Settings returns the editing knobs in effect.
func (e *Editor) Settings() Settings {
	return e.settings
}

// MoveEarlier shifts an event back by one step. The head may move down to
// minute zero; any other event must not overlap its predecessor.
func (e *Editor) MoveEarlier(id string) {
	i := e.queue.IndexOf(id)
	if i < 0 {
		return
	}
	ev, _ := e.queue.At(i)
	newStart := ev.StartMinute - e.settings.StepMinutes
	if i == 0 {
		if newStart < 0 {
			return
		}
	} else {
		prev, _ := e.queue.At(i - 1)
		if newStart < prev.End() {
			return
		}
	}
	e.shiftWithCascade(i, -e.settings.StepMinutes)
	e.changed()
}

// MoveLater shifts an event forward by one step. Only the day-end bound is
// checked; the successor is handled by the cascade, not a guard.
func (e *Editor) MoveLater(id string) {
	i := e.queue.IndexOf(id)
	if i < 0 {
		return
	}
	ev, _ := e.queue.At(i)
	if ev.StartMinute >= moveLaterLimit {
		return
	}
	e.shiftWithCascade(i, e.settings.StepMinutes)
	e.changed()
}

// Resize grows or shrinks an event by one step, floored at the minimum
// duration. The cascade uses the actually applied delta, which may be
// smaller than the step when the floor clamps it.
func (e *Editor) Resize(id string, grow bool) {
	i := e.queue.IndexOf(id)
	if i < 0 {
		return
	}
	ev, _ := e.queue.At(i)
	requested := e.settings.StepMinutes
	if !grow {
		requested = -requested
	}
	newDuration := ev.DurationMinutes + requested
	if newDuration < e.settings.MinDurationMinutes {
		newDuration = e.settings.MinDurationMinutes
	}
	delta := newDuration - ev.DurationMinutes
	if delta == 0 {
		return
	}
	end := e.chainEnd(i)
	e.queue.SetDuration(id, newDuration)
	for k := i + 1; k <= end; k++ {
		next, _ := e.queue.At(k)
		e.queue.SetStart(next.ID, next.StartMinute+delta)
	}
	e.changed()
}

// Reorder swaps an event with its neighbour in the given direction and
// re-times forward from the swapped-in position. Pre-swap spacing decides
// how far the re-timing walks: it stops at the first edge that was not
// contiguous before the swap, so intentional gaps beyond the pair survive.
// The swapped pair itself keeps its pre-swap spacing.
func (e *Editor) Reorder(id string, direction MoveDirection) {
	i := e.queue.IndexOf(id)
	if i < 0 {
		return
	}
	j := i + 1
	if direction == DirectionUp {
		j = i - 1
	}
	if j < 0 || j >= e.queue.Len() {
		return
	}

	events := e.queue.Events()
	gaps := make([]int, len(events)-1)
	for k := 0; k < len(events)-1; k++ {
		gaps[k] = events[k+1].StartMinute - events[k].End()
	}

	lo := i
	if j < i {
		lo = j
	}
	anchor := events[lo].StartMinute

	order := make([]string, len(events))
	for k, ev := range events {
		order[k] = ev.ID
	}
	order[i], order[j] = order[j], order[i]
	if err := e.queue.RebuildFromOrder(order); err != nil {
		e.logger.Warn("reorder rebuild failed", zap.String("event_id", id), zap.Error(err))
		return
	}

	// Re-stack from the swapped-in position: the pair keeps its old spacing,
	// then stacking continues only across edges that were contiguous.
	e.queue.SetStart(order[lo], anchor)
	for k := lo + 1; k < e.queue.Len(); k++ {
		prev, _ := e.queue.At(k - 1)
		if k == lo+1 {
			spacing := gaps[lo]
			if spacing < 0 {
				spacing = 0
			}
			e.queue.SetStart(order[k], prev.End()+spacing)
			continue
		}
		if gaps[k-1] != 0 {
			break
		}
		e.queue.SetStart(order[k], prev.End())
	}
	e.changed()
}

// CloseGapBefore pulls an event flush against its predecessor, then runs the
// adjacency-gated cascade for its own successor.
func (e *Editor) CloseGapBefore(id string) {
	i := e.queue.IndexOf(id)
	if i <= 0 {
		return
	}
	ev, _ := e.queue.At(i)
	prev, _ := e.queue.At(i - 1)
	gap := ev.StartMinute - prev.End()
	if gap <= 0 {
		return
	}
	e.shiftWithCascade(i, -gap)
	e.changed()
}

// RemoveWithCascade detaches an event and recompacts the whole tail: every
// subsequent event stacks immediately after the previous one, starting from
// the removed event's end, closing all downstream gaps unconditionally.
func (e *Editor) RemoveWithCascade(id string) (models.Event, error) {
	i := e.queue.IndexOf(id)
	if i < 0 {
		return models.Event{}, appErrors.Clone(appErrors.ErrNotFound, "event not found in queue")
	}
	removed, _ := e.queue.RemoveByID(id)
	cursor := removed.End()
	for k := i; k < e.queue.Len(); k++ {
		ev, _ := e.queue.At(k)
		e.queue.SetStart(ev.ID, cursor)
		cursor += ev.DurationMinutes
	}
	e.changed()
	return removed, nil
}

// SetLocation updates the location label in place. No cascade implications.
func (e *Editor) SetLocation(id, location string) {
	if e.queue.SetLocation(id, location) {
		e.changed()
	}
}

// SetLocationAll rewrites every event's location with a single notify.
func (e *Editor) SetLocationAll(location string) {
	if e.queue.Len() == 0 {
		return
	}
	for _, ev := range e.queue.Events() {
		e.queue.SetLocation(ev.ID, location)
	}
	e.changed()
}

// SetStatus updates the lifecycle status in place.
func (e *Editor) SetStatus(id string, status models.EventStatus) {
	if e.queue.SetStatus(id, status) {
		e.changed()
	}
}

// Insert places a new event via the slot heuristic. The caller supplies the
// id; the event's start minute is treated as the desired anchor.
func (e *Editor) Insert(ev models.Event) (models.Event, error) {
	slot := FindInsertionSlot(e.queue, ev.StartMinute, ev.DurationMinutes, e.settings)
	ev.StartMinute = slot.StartMinute
	var err error
	if slot.Position == SlotHead {
		err = e.queue.InsertAtHead(ev)
	} else {
		err = e.queue.InsertAtTail(ev)
	}
	if err != nil {
		return models.Event{}, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "event id already queued")
	}
	e.changed()
	return ev, nil
}

// Reanchor shifts the whole queue so the head starts at the given minute,
// preserving the queue's internal spacing.
func (e *Editor) Reanchor(startMinute int) {
	first, ok := e.queue.First()
	if !ok {
		return
	}
	delta := startMinute - first.StartMinute
	if delta == 0 {
		return
	}
	e.queue.CascadeShift(first.ID, delta)
	e.changed()
}

// shiftWithCascade moves the event at index i by delta, then moves every
// event in the zero-gap chain behind it by the same delta. The chain extent is
// measured once, against pre-mutation positions; it is not re-evaluated
// mid-walk, and the walk never stops partway through the chain.
func (e *Editor) shiftWithCascade(i, delta int) {
	end := e.chainEnd(i)
	for k := i; k <= end; k++ {
		ev, _ := e.queue.At(k)
		e.queue.SetStart(ev.ID, ev.StartMinute+delta)
	}
}

// chainEnd returns the index of the last event in the contiguous run starting
// at i. A gapped or overlapping successor ends the run.
func (e *Editor) chainEnd(i int) int {
	for e.nextIsContiguous(i) {
		i++
	}
	return i
}

// nextIsContiguous reports whether the successor starts exactly at this
// event's current end. Gapped or overlapping successors block the cascade.
func (e *Editor) nextIsContiguous(i int) bool {
	ev, ok := e.queue.At(i)
	if !ok {
		return false
	}
	next, ok := e.queue.At(i + 1)
	if !ok {
		return false
	}
	return next.StartMinute == ev.End()
}

func (e *Editor) changed() {
	if e.notify != nil {
		e.notify()
	}
}
