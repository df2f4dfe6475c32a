package gesture

import (
	"sync"
	"time"
)

// ResizeOptions controls the distance-gated resize recognizer.
type ResizeOptions struct {
	// MinDragDistance is the displacement (px) the touch must cross before
	// the session activates. Until then the session is dormant and no
	// callback fires at all.
	MinDragDistance float64

	// Throttle is the minimum spacing between resize-move emissions, same
	// coalescing rules as Classifier.
	Throttle time.Duration
}

func (o ResizeOptions) withDefaults() ResizeOptions {
	if o.MinDragDistance <= 0 {
		o.MinDragDistance = DefaultMinDragDistance
	}
	if o.Throttle <= 0 {
		o.Throttle = DefaultThrottle
	}
	return o
}

// ResizeCallbacks is the callback set for a ResizeRecognizer. Nil entries
// are skipped. Deltas are cumulative from the session's start point.
type ResizeCallbacks struct {
	// OnResizeStart fires the first time displacement crosses
	// MinDragDistance, not at raw touch start.
	OnResizeStart func(p Point)
	OnResizeMove  func(dx, dy float64)
	// OnResizeEnd fires with the final cumulative delta, and only for a
	// session that activated. A session that never crossed the threshold
	// produces no end callback.
	OnResizeEnd func(dx, dy float64)
}

// ResizeRecognizer is the edge-handle variant of the classifier: gated by
// distance only, with no long-press and no concept of tap.
type ResizeRecognizer struct {
	mu   sync.Mutex
	opts ResizeOptions
	cb   ResizeCallbacks

	now      func() time.Time
	schedule scheduleFunc

	gen uint64

	active   bool
	resizing bool
	start    Point
	current  Point

	lastEmit   time.Time
	frameTimer handle
}

// NewResizeRecognizer creates a resize recognizer.
func NewResizeRecognizer(opts ResizeOptions, cb ResizeCallbacks) *ResizeRecognizer {
	return &ResizeRecognizer{
		opts:     opts.withDefaults(),
		cb:       cb,
		now:      time.Now,
		schedule: realSchedule,
	}
}

// Start begins a dormant resize session at p.
func (r *ResizeRecognizer) Start(p Point) {
	r.mu.Lock()
	r.resetLocked()
	r.active = true
	r.start = p
	r.current = p
	r.lastEmit = time.Time{}
	r.mu.Unlock()
}

// Move feeds the next pointer sample. The first sample whose displacement
// crosses MinDragDistance activates the session and fires OnResizeStart;
// subsequent samples are throttled like drag moves.
func (r *ResizeRecognizer) Move(p Point) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.current = p

	if !r.resizing {
		if r.start.DistanceTo(p) < r.opts.MinDragDistance {
			r.mu.Unlock()
			return
		}
		r.resizing = true
		start := r.start
		fn := r.cb.OnResizeStart
		r.mu.Unlock()
		if fn != nil {
			fn(start)
		}
		return
	}

	now := r.now()
	if now.Sub(r.lastEmit) < r.opts.Throttle {
		r.mu.Unlock()
		return
	}
	r.lastEmit = now
	gen := r.gen
	stopHandle(r.frameTimer)
	r.frameTimer = r.schedule(r.opts.Throttle, func() {
		r.fireMove(gen)
	})
	r.mu.Unlock()
}

// End terminates the session. Only a session that activated resolves to
// OnResizeEnd; a dormant one dissolves with no callback.
func (r *ResizeRecognizer) End() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	wasResizing := r.resizing
	dx := r.current.X - r.start.X
	dy := r.current.Y - r.start.Y
	r.resetLocked()

	var fire func()
	if wasResizing {
		if cb := r.cb.OnResizeEnd; cb != nil {
			fire = func() { cb(dx, dy) }
		}
	}
	r.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Cancel is semantically identical to End.
func (r *ResizeRecognizer) Cancel() {
	r.End()
}

func (r *ResizeRecognizer) fireMove(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || !r.resizing {
		r.mu.Unlock()
		return
	}
	r.frameTimer = nil
	dx := r.current.X - r.start.X
	dy := r.current.Y - r.start.Y
	fn := r.cb.OnResizeMove
	r.mu.Unlock()
	if fn != nil {
		fn(dx, dy)
	}
}

func (r *ResizeRecognizer) resetLocked() {
	r.gen++
	stopHandle(r.frameTimer)
	r.frameTimer = nil
	r.active = false
	r.resizing = false
}
