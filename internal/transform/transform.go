// Package transform turns pixel deltas into proposed event start/end times
// and validates them against ordering, duration and protection rules.
//
// Builders never reject: they may produce an invalid range, which Validate
// catches before anything becomes caller-visible.
package transform

import (
	"time"

	"dragcal/internal/model"
)

// Direction selects which edge a resize adjusts.
type Direction string

const (
	// DirectionLeft adjusts the start time only.
	DirectionLeft Direction = "left"
	// DirectionRight adjusts the end time only.
	DirectionRight Direction = "right"
)

// BuildMovedTimes proposes new times for moving ev so that it starts at
// target. With preserveDuration the end shifts by the same amount; otherwise
// only the start changes and the end is left as-is, which may produce an
// invalid range for Validate to reject.
func BuildMovedTimes(ev model.Event, target time.Time, preserveDuration bool) model.ProposedTimes {
	if preserveDuration {
		return model.ProposedTimes{
			Start: target,
			End:   target.Add(ev.Duration()),
		}
	}
	return model.ProposedTimes{
		Start: target,
		End:   ev.End,
	}
}

// BuildResizedTimes proposes new times for resizing ev so that the edge
// selected by dir lands on snapped. The opposite edge is untouched. An
// unknown direction proposes the event's current times unchanged.
func BuildResizedTimes(ev model.Event, snapped time.Time, dir Direction) model.ProposedTimes {
	switch dir {
	case DirectionLeft:
		return model.ProposedTimes{Start: snapped, End: ev.End}
	case DirectionRight:
		return model.ProposedTimes{Start: ev.Start, End: snapped}
	default:
		return model.ProposedTimes{Start: ev.Start, End: ev.End}
	}
}
