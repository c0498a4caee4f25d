package board

// SlotPosition says where a found slot sits relative to the queue.
type SlotPosition string

const (
	SlotHead SlotPosition = "HEAD"
	SlotTail SlotPosition = "TAIL"
)

// Slot is a candidate placement for a new event.
type Slot struct {
	StartMinute int          `json:"start_minute"`
	Position    SlotPosition `json:"position"`
}

// FindInsertionSlot picks where a new event should go for a desired anchor
// time. It is a heuristic, not a bin packer: only the head of the queue and
// after-the-current-tail are ever candidates, never gaps in the middle.
//
//  1. Empty queue: the anchor itself, at the tail.
//  2. Anchor clear of every event, before the first one, with the required
//     gap to spare: head slot at the anchor.
//  3. Anchor clear of every event, at or past last end + required gap, and
//     still inside the day: tail slot at the anchor.
//  4. Anything else (anchor occupied, or mid-queue without a valid head
//     slot): tail slot at last end + required gap.
func FindInsertionSlot(q *Queue, anchorMinute, durationMinutes int, s Settings) Slot {
	s = s.WithDefaults()
	if q == nil || q.Len() == 0 {
		return Slot{StartMinute: anchorMinute, Position: SlotTail}
	}

	first, _ := q.First()
	last, _ := q.Last()
	anchorEnd := anchorMinute + durationMinutes
	clear := !overlapsAny(q, anchorMinute, anchorEnd)

	if clear && anchorMinute < first.StartMinute && first.StartMinute-anchorEnd >= s.RequiredGapMinutes {
		return Slot{StartMinute: anchorMinute, Position: SlotHead}
	}
	if clear && anchorMinute >= last.End()+s.RequiredGapMinutes && anchorEnd <= MinutesPerDay {
		return Slot{StartMinute: anchorMinute, Position: SlotTail}
	}
	return Slot{StartMinute: last.End() + s.RequiredGapMinutes, Position: SlotTail}
}

// overlapsAny runs the half-open interval test against every queued event.
func overlapsAny(q *Queue, start, end int) bool {
	for _, ev := range q.Events() {
		if start < ev.End() && end > ev.StartMinute {
			return true
		}
	}
	return false
}
