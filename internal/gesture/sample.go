package gesture

// RawSample is the wire shape of one pointer event. Touch-originated events
// carry a touches array; mouse/pointer-originated events carry direct
// coordinates. Both normalize to a single Point so one state machine serves
// all input sources.
type RawSample struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	Touches []TouchPoint `json:"touches,omitempty"`
}

// TouchPoint is one entry of a touch event's touches list.
type TouchPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Normalize extracts the tracked coordinate from a raw sample. For touch
// events only the first touch point is tracked; subsequent simultaneous
// points are ignored. It returns false when the sample carries no usable
// coordinate (e.g., a touchend with an empty touches list and no fallback).
func (s RawSample) Normalize() (Point, bool) {
	if len(s.Touches) > 0 {
		return Point{X: s.Touches[0].X, Y: s.Touches[0].Y}, true
	}
	if s.X != nil && s.Y != nil {
		return Point{X: *s.X, Y: *s.Y}, true
	}
	return Point{}, false
}
