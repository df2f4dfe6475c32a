// Package manipulate wires the gesture recognizers to the temporal
// transform pipeline for one input target: pointer samples in, validated
// time changes (or rejection warnings) out.
package manipulate

import (
	"context"
	"errors"
	"sync"
	"time"

	"dragcal/internal/gesture"
	appLog "dragcal/internal/log"
	"dragcal/internal/model"
	"dragcal/internal/snap"
	"dragcal/internal/store"
	"dragcal/internal/transform"
)

// Mode selects which manipulation a session performs.
type Mode string

const (
	ModeMove        Mode = "move"
	ModeResizeLeft  Mode = "resize-left"
	ModeResizeRight Mode = "resize-right"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeMove, ModeResizeLeft, ModeResizeRight:
		return true
	}
	return false
}

// direction maps a resize mode onto the transform direction.
func (m Mode) direction() transform.Direction {
	if m == ModeResizeLeft {
		return transform.DirectionLeft
	}
	return transform.DirectionRight
}

// Warning codes surfaced to the client on rejection. The client owns
// localization; the engine only emits stable codes.
const (
	WarnInvalidRange     = "invalid_range"
	WarnDurationTooShort = "duration_too_short"
	WarnProtectedResize  = "protected_resize"
)

// Notice is one engine-to-caller notification. Exactly one semantic group
// of fields is populated per Type.
type Notice struct {
	// Type is one of: tap, longpress, dragstart, preview, committed, rejected.
	Type string

	// X/Y carry the session start point for tap/longpress/dragstart.
	X, Y float64

	// DX/DY carry the cumulative delta for preview notices.
	DX, DY float64

	// Start/End carry proposed (preview) or accepted (committed) times.
	Start, End time.Time

	// Suppress asks the input source to prevent its default
	// scroll/selection behavior; set on dragstart.
	Suppress bool

	// Warning is the rejection code for rejected notices.
	Warning string
}

// Config assembles the engine configuration for one controller.
type Config struct {
	Gesture gesture.Options
	Resize  gesture.ResizeOptions

	Grid                transform.Grid
	SnapIntervalMinutes int
	Policy              transform.Policy
}

// Controller owns one manipulation session per input target. It feeds
// pointer samples into the matching recognizer, maps cumulative pixel
// deltas through grid geometry and snapping into proposed times, validates
// them, and persists accepted changes as an occurrence override.
//
// Session state is structurally single-owner: Begin selects the target,
// and only one recognizer session is live at any time.
type Controller struct {
	cfg  Config
	repo store.Repository // may be nil; commits are then notify-only
	emit func(Notice)
	ctx  context.Context

	classifier *gesture.Classifier
	resizer    *gesture.ResizeRecognizer

	mu     sync.Mutex
	target model.Occurrence
	armed  bool
	mode   Mode
}

// New creates a controller. emit receives every engine notification; it may
// be called from timer goroutines and must not block for long.
func New(ctx context.Context, cfg Config, repo store.Repository, emit func(Notice)) *Controller {
	if emit == nil {
		emit = func(Notice) {}
	}
	c := &Controller{
		cfg:  cfg,
		repo: repo,
		emit: emit,
		ctx:  ctx,
	}

	c.classifier = gesture.NewClassifier(cfg.Gesture, gesture.Callbacks{
		OnTap:       c.onTap,
		OnLongPress: c.onLongPress,
		OnDragStart: c.onDragStart,
		OnDragMove:  c.onDragMove,
		OnDragEnd:   c.onDragEnd,
	})
	c.resizer = gesture.NewResizeRecognizer(cfg.Resize, gesture.ResizeCallbacks{
		OnResizeStart: c.onDragStart,
		OnResizeMove:  c.onDragMove,
		OnResizeEnd:   c.onResizeEnd,
	})
	return c
}

// Begin selects the occurrence and mode for the next gesture session.
func (c *Controller) Begin(occ model.Occurrence, mode Mode) error {
	if !mode.Valid() {
		return errors.New("manipulate: unknown mode")
	}
	c.mu.Lock()
	c.target = occ
	c.mode = mode
	c.armed = true
	c.mu.Unlock()
	return nil
}

// PointerStart feeds a touch/pointer down sample.
func (c *Controller) PointerStart(p gesture.Point) {
	if mode, ok := c.session(); ok {
		if mode == ModeMove {
			c.classifier.Start(p)
		} else {
			c.resizer.Start(p)
		}
	}
}

// PointerMove feeds a movement sample.
func (c *Controller) PointerMove(p gesture.Point) {
	if mode, ok := c.session(); ok {
		if mode == ModeMove {
			c.classifier.Move(p)
		} else {
			c.resizer.Move(p)
		}
	}
}

// PointerEnd feeds a touch/pointer up event.
func (c *Controller) PointerEnd() {
	if mode, ok := c.session(); ok {
		if mode == ModeMove {
			c.classifier.End()
		} else {
			c.resizer.End()
		}
	}
}

// PointerCancel feeds a platform cancel event; it resolves the session the
// same way PointerEnd does.
func (c *Controller) PointerCancel() {
	if mode, ok := c.session(); ok {
		if mode == ModeMove {
			c.classifier.Cancel()
		} else {
			c.resizer.Cancel()
		}
	}
}

func (c *Controller) session() (Mode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.armed
}

func (c *Controller) snapshot() (model.Occurrence, Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target, c.mode
}

// propose maps a cumulative pixel delta into snapped proposed times for the
// current target and mode.
func (c *Controller) propose(dx, dy float64) (model.Event, model.ProposedTimes, transform.Op) {
	occ, mode := c.snapshot()
	ev := occ.Event()

	if mode == ModeMove {
		target := c.cfg.Grid.TargetTime(ev.Start, dx, dy)
		snapped := snap.ToGrid(target, c.cfg.SnapIntervalMinutes)
		return ev, transform.BuildMovedTimes(ev, snapped, true), transform.OpMove
	}

	base := ev.Start
	if mode == ModeResizeRight {
		base = ev.End
	}
	target := c.cfg.Grid.TargetTime(base, dx, dy)
	snapped := snap.ToGrid(target, c.cfg.SnapIntervalMinutes)
	return ev, transform.BuildResizedTimes(ev, snapped, mode.direction()), transform.OpResize
}

func (c *Controller) onTap(x, y float64) {
	c.emit(Notice{Type: "tap", X: x, Y: y})
}

func (c *Controller) onLongPress(p gesture.Point) {
	c.emit(Notice{Type: "longpress", X: p.X, Y: p.Y})
}

func (c *Controller) onDragStart(p gesture.Point) {
	c.emit(Notice{Type: "dragstart", X: p.X, Y: p.Y, Suppress: true})
}

// onDragMove emits an unvalidated preview. Previews are display-only; the
// commit path re-validates from scratch, so nothing caller-visible mutates
// here.
func (c *Controller) onDragMove(dx, dy float64) {
	_, proposed, _ := c.propose(dx, dy)
	c.emit(Notice{
		Type:  "preview",
		DX:    dx,
		DY:    dy,
		Start: proposed.Start,
		End:   proposed.End,
	})
}

func (c *Controller) onDragEnd(dx, dy float64) {
	c.finish(dx, dy)
}

func (c *Controller) onResizeEnd(dx, dy float64) {
	c.finish(dx, dy)
}

// finish computes, validates and commits the final proposal atomically: the
// override is only written (and the committed notice only sent) after the
// whole proposal passed validation.
func (c *Controller) finish(dx, dy float64) {
	ev, proposed, op := c.propose(dx, dy)

	if err := c.cfg.Policy.Validate(ev, proposed, op); err != nil {
		appLog.Info("manipulation rejected",
			"uid", ev.UID, "op", int(op), "warning", warningCode(err))
		c.emit(Notice{Type: "rejected", Warning: warningCode(err)})
		return
	}

	occ, _ := c.snapshot()
	if c.repo != nil {
		ov := store.Override{
			SourceID:    occ.SourceID,
			UID:         occ.UID,
			InstanceKey: occ.InstanceKey,
			Start:       proposed.Start,
			End:         proposed.End,
		}
		if err := c.repo.SaveOverride(c.ctx, ov); err != nil {
			appLog.Error("override save failed", err, "uid", occ.UID, "instance", occ.InstanceKey)
			c.emit(Notice{Type: "rejected", Warning: "persistence_failed"})
			return
		}
	}

	c.emit(Notice{Type: "committed", Start: proposed.Start, End: proposed.End})
}

// warningCode maps a validation sentinel onto its client-facing code.
func warningCode(err error) string {
	switch {
	case errors.Is(err, transform.ErrProtectedResize):
		return WarnProtectedResize
	case errors.Is(err, transform.ErrDurationTooShort):
		return WarnDurationTooShort
	case errors.Is(err, transform.ErrInvalidRange):
		return WarnInvalidRange
	}
	return "invalid_transform"
}
