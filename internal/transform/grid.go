package transform

import (
	"math"
	"time"
)

// Grid maps cumulative pixel deltas onto the calendar surface geometry.
// Vertical displacement maps to minutes within the day; horizontal
// displacement maps to whole day columns.
type Grid struct {
	// MinutesPerPixel converts vertical displacement into minutes.
	// Example: a 40 px/hour layout uses 1.5 minutes per pixel.
	MinutesPerPixel float64

	// DayWidthPx is the width of one day column. Zero disables horizontal
	// (day-to-day) movement, which is what single-day views use.
	DayWidthPx float64
}

// TargetTime applies a cumulative pixel delta to base. The vertical
// component is continuous (snapping happens later); the horizontal
// component rounds to the nearest whole day column.
func (g Grid) TargetTime(base time.Time, dx, dy float64) time.Time {
	t := base
	if g.MinutesPerPixel > 0 {
		minutes := dy * g.MinutesPerPixel
		t = t.Add(time.Duration(minutes * float64(time.Minute)))
	}
	if g.DayWidthPx > 0 {
		if days := int(math.Round(dx / g.DayWidthPx)); days != 0 {
			t = t.AddDate(0, 0, days)
		}
	}
	return t
}
