// Package gesture classifies a stream of pointer samples for one active
// touch into tap, long-press and drag, and provides a distance-gated
// recognizer variant for edge-handle resize.
//
// Both recognizers own their session state exclusively: only one session is
// active per instance, and state is reset to neutral on every terminal
// transition. Timer and frame callbacks are bound to a generation counter so
// a late-firing callback from a superseded gesture is detected and dropped.
package gesture

import (
	"math"
	"time"
)

// Point is a single normalized pointer sample.
type Point struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Defaults for recognizer options.
const (
	DefaultDragThreshold     = 10.0 // px
	DefaultMinDragDistance   = 10.0 // px, resize variant
	DefaultLongPressDuration = 500 * time.Millisecond
	DefaultThrottle          = 16 * time.Millisecond
)

// classification is the mutually-exclusive category assigned to one touch
// interaction. Transitions are monotonic: once drag or long-press is
// reached, the session cannot revert. Tap is transient and resolved at End.
type classification int

const (
	classNone classification = iota
	classDrag
	classLongPress
)

// handle is a cancellable scheduled callback.
type handle interface {
	Stop() bool
}

// scheduleFunc schedules fn to run once after d, possibly on another
// goroutine. Production code uses time.AfterFunc; tests substitute a fake
// so timer expiry is driven explicitly.
type scheduleFunc func(d time.Duration, fn func()) handle

func realSchedule(d time.Duration, fn func()) handle {
	return time.AfterFunc(d, fn)
}

func stopHandle(h handle) {
	if h != nil {
		h.Stop()
	}
}
