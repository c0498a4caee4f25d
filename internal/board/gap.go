package board

import "github.com/schoolops/board-api/internal/models"

// GapState classifies the spacing between two adjacent events.
type GapState string

const (
	// GapOverlap means the current event starts before its predecessor ends.
	GapOverlap GapState = "OVERLAP"
	// GapExact means the spacing equals the required gap exactly.
	GapExact GapState = "EXACT"
	// GapOpen means any other non-overlapping spacing; Minutes carries the
	// excess over the required gap and is negative when the spacing is tighter.
	GapOpen GapState = "GAP"
)

// GapReport describes the relationship between two adjacent events.
type GapReport struct {
	State   GapState `json:"state"`
	Minutes int      `json:"minutes"`
}

// ClassifyGap compares adjacent events against the required gap. Pure; the
// editor consults it before rendering gap warnings and the adjacency test
// uses the raw spacing it derives from.
func ClassifyGap(prev, curr models.Event, requiredGapMinutes int) GapReport {
	actual := curr.StartMinute - prev.End()
	switch {
	case actual < 0:
		return GapReport{State: GapOverlap, Minutes: -actual}
	case actual == requiredGapMinutes:
		return GapReport{State: GapExact}
	default:
		return GapReport{State: GapOpen, Minutes: actual - requiredGapMinutes}
	}
}
