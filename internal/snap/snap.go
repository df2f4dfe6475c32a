// Package snap aligns continuous time values to a fixed-interval grid.
package snap

import "time"

// ToGrid rounds t to the nearest multiple of intervalMinutes counted from
// local midnight of t's own day, half-up. A non-positive interval returns t
// unchanged.
//
// The operation is idempotent: re-snapping an already-aligned value is a
// no-op. On DST-shift days boundaries follow wall-clock minutes from
// midnight, so the grid stays where the user sees it.
func ToGrid(t time.Time, intervalMinutes int) time.Time {
	if intervalMinutes <= 0 {
		return t
	}
	interval := time.Duration(intervalMinutes) * time.Minute
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)

	snapped := (offset + interval/2) / interval * interval
	return midnight.Add(snapped)
}
