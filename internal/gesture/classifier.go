package gesture

import (
	"sync"
	"time"
)

// Options controls classification thresholds. Zero values fall back to the
// package defaults, mirroring config.Normalize behavior.
type Options struct {
	// DragThreshold is the displacement (px, from the start point) at which
	// an unclassified touch becomes a drag.
	DragThreshold float64

	// LongPressDuration is how long an unmoved touch must be held before the
	// long-press callback fires.
	LongPressDuration time.Duration

	// Throttle is the minimum spacing between drag-move emissions. Samples
	// inside a window are coalesced; the pending frame callback delivers the
	// latest cumulative delta.
	Throttle time.Duration
}

func (o Options) withDefaults() Options {
	if o.DragThreshold <= 0 {
		o.DragThreshold = DefaultDragThreshold
	}
	if o.LongPressDuration <= 0 {
		o.LongPressDuration = DefaultLongPressDuration
	}
	if o.Throttle <= 0 {
		o.Throttle = DefaultThrottle
	}
	return o
}

// Callbacks is the configured callback set for a Classifier. Nil entries are
// skipped. Deltas are always cumulative from the session's start point,
// never incremental from the previous sample.
type Callbacks struct {
	OnTap       func(x, y float64)
	OnLongPress func(p Point)
	OnDragStart func(p Point)
	OnDragMove  func(dx, dy float64)
	OnDragEnd   func(dx, dy float64)
}

// Classifier disambiguates tap, long-press and drag from a stream of pointer
// samples for one active touch.
//
// State machine:
//
//	Idle -> (displacement >= DragThreshold) -> Dragging -> (End) -> Idle
//	Idle -> (timer expiry, no movement)     -> LongPressed -> (End) -> Idle
//	Idle -> (End, short elapsed)            -> Tap (transient) -> Idle
//
// All methods are safe for concurrent use; timer callbacks fire on
// background goroutines and are discarded when their generation no longer
// matches the live session.
type Classifier struct {
	mu   sync.Mutex
	opts Options
	cb   Callbacks

	now      func() time.Time
	schedule scheduleFunc

	// gen increments on every Start and every terminal transition. Scheduled
	// callbacks capture it and no-op on mismatch, so a stale timer from an
	// earlier gesture can never fire into a newer one.
	gen uint64

	active    bool
	start     Point
	current   Point
	startedAt time.Time
	class     classification

	lastEmit   time.Time
	pressTimer handle
	frameTimer handle
}

// NewClassifier creates a classifier with the given options and callbacks.
func NewClassifier(opts Options, cb Callbacks) *Classifier {
	return &Classifier{
		opts:     opts.withDefaults(),
		cb:       cb,
		now:      time.Now,
		schedule: realSchedule,
	}
}

// Start begins a new gesture session at p. Any previous session state is
// cleared first; its pending timer/frame callbacks are invalidated.
func (c *Classifier) Start(p Point) {
	c.mu.Lock()
	c.resetLocked()
	c.active = true
	c.start = p
	c.current = p
	c.startedAt = c.now()
	c.lastEmit = time.Time{}

	gen := c.gen
	c.pressTimer = c.schedule(c.opts.LongPressDuration, func() {
		c.firePress(gen)
	})
	c.mu.Unlock()
}

// Move feeds the next pointer sample. An unclassified touch whose
// displacement from the start point reaches DragThreshold becomes a drag;
// further samples are throttled to at most one OnDragMove per Throttle
// window, latest delta wins.
func (c *Classifier) Move(p Point) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.current = p

	if c.class == classNone && c.start.DistanceTo(p) >= c.opts.DragThreshold {
		stopHandle(c.pressTimer)
		c.pressTimer = nil
		c.class = classDrag
		start := c.start
		fn := c.cb.OnDragStart
		c.mu.Unlock()
		if fn != nil {
			fn(start)
		}
		return
	}

	if c.class == classDrag {
		now := c.now()
		if now.Sub(c.lastEmit) < c.opts.Throttle {
			// Inside the window: the sample is dropped, but c.current was
			// updated above so a pending frame delivers the newer delta.
			c.mu.Unlock()
			return
		}
		c.lastEmit = now
		gen := c.gen
		stopHandle(c.frameTimer)
		c.frameTimer = c.schedule(c.opts.Throttle, func() {
			c.fireMove(gen)
		})
	}
	c.mu.Unlock()
}

// End terminates the session. A drag resolves to OnDragEnd with the final
// cumulative delta; an unclassified short touch resolves to OnTap at the
// start point; a long-press resolves silently (its callback already fired).
// State resets to neutral unconditionally.
func (c *Classifier) End() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	class := c.class
	start := c.start
	dx := c.current.X - c.start.X
	dy := c.current.Y - c.start.Y
	elapsed := c.now().Sub(c.startedAt)
	c.resetLocked()

	var fire func()
	switch class {
	case classDrag:
		if cb := c.cb.OnDragEnd; cb != nil {
			fire = func() { cb(dx, dy) }
		}
	case classNone:
		if elapsed < c.opts.LongPressDuration {
			if cb := c.cb.OnTap; cb != nil {
				fire = func() { cb(start.X, start.Y) }
			}
		}
	}
	c.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Cancel is semantically identical to End: a platform cancel must still
// resolve an in-progress drag to its terminal callback rather than dropping
// it, or the caller would be left with a dangling preview.
func (c *Classifier) Cancel() {
	c.End()
}

// firePress is the long-press timer callback. It fires only while the
// session that armed it is still live and unclassified.
func (c *Classifier) firePress(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.active || c.class != classNone {
		c.mu.Unlock()
		return
	}
	c.class = classLongPress
	c.pressTimer = nil
	start := c.start
	fn := c.cb.OnLongPress
	c.mu.Unlock()
	if fn != nil {
		fn(start)
	}
}

// fireMove is the pending frame callback. It reads the cumulative delta at
// fire time, so samples coalesced after scheduling are still reflected.
func (c *Classifier) fireMove(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.class != classDrag {
		c.mu.Unlock()
		return
	}
	c.frameTimer = nil
	dx := c.current.X - c.start.X
	dy := c.current.Y - c.start.Y
	fn := c.cb.OnDragMove
	c.mu.Unlock()
	if fn != nil {
		fn(dx, dy)
	}
}

func (c *Classifier) resetLocked() {
	c.gen++
	stopHandle(c.pressTimer)
	c.pressTimer = nil
	stopHandle(c.frameTimer)
	c.frameTimer = nil
	c.active = false
	c.class = classNone
}
