package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestResizer(opts ResizeOptions) (*ResizeRecognizer, *recorder, *fakeClock, *fakeScheduler) {
	rec := &recorder{}
	r := NewResizeRecognizer(opts, ResizeCallbacks{
		OnResizeStart: func(p Point) { rec.add("resizestart(%g,%g)", p.X, p.Y) },
		OnResizeMove:  func(dx, dy float64) { rec.add("resizemove(%g,%g)", dx, dy) },
		OnResizeEnd:   func(dx, dy float64) { rec.add("resizeend(%g,%g)", dx, dy) },
	})
	clock := newFakeClock()
	sched := &fakeScheduler{}
	r.now = clock.Now
	r.schedule = sched.schedule
	return r, rec, clock, sched
}

func TestResize_DormantSessionDissolvesSilently(t *testing.T) {
	r, rec, clock, _ := newTestResizer(ResizeOptions{})

	r.Start(Point{X: 100, Y: 100})
	r.Move(Point{X: 105, Y: 100}) // under the 10 px gate
	clock.Advance(2 * time.Second) // time alone never activates a resize
	r.End()

	assert.Empty(t, rec.list(), "a session that never crossed the gate produces no callbacks")
}

func TestResize_ActivatesOnDistanceWithOriginalStartPoint(t *testing.T) {
	r, rec, _, _ := newTestResizer(ResizeOptions{})

	r.Start(Point{X: 100, Y: 100})
	r.Move(Point{X: 100, Y: 115})
	r.End()

	assert.Equal(t, []string{"resizestart(100,100)", "resizeend(0,15)"}, rec.list())
}

func TestResize_MovesThrottleAndCoalesce(t *testing.T) {
	r, rec, clock, sched := newTestResizer(ResizeOptions{})

	r.Start(Point{X: 0, Y: 0})
	r.Move(Point{X: 0, Y: 20}) // activates
	r.Move(Point{X: 0, Y: 21}) // schedules the frame
	r.Move(Point{X: 0, Y: 25}) // same window: dropped, delta updated
	sched.fireLive()
	clock.Advance(20 * time.Millisecond)
	r.Move(Point{X: 0, Y: 40})
	sched.fireLive()
	r.End()

	assert.Equal(t, []string{
		"resizestart(0,0)",
		"resizemove(0,25)",
		"resizemove(0,40)",
		"resizeend(0,40)",
	}, rec.list())
}

func TestResize_CancelResolvesLikeEnd(t *testing.T) {
	r, rec, _, _ := newTestResizer(ResizeOptions{})

	r.Start(Point{X: 0, Y: 0})
	r.Move(Point{X: 12, Y: 0})
	r.Cancel()

	assert.Equal(t, []string{"resizestart(0,0)", "resizeend(12,0)"}, rec.list())
}

func TestResize_CancelOfDormantSessionIsSilent(t *testing.T) {
	r, rec, _, _ := newTestResizer(ResizeOptions{})

	r.Start(Point{X: 0, Y: 0})
	r.Cancel()

	assert.Empty(t, rec.list())
}

func TestResize_StaleFrameFromPreviousSessionIsDiscarded(t *testing.T) {
	r, rec, _, sched := newTestResizer(ResizeOptions{})

	r.Start(Point{X: 0, Y: 0})
	r.Move(Point{X: 15, Y: 0})
	r.Move(Point{X: 16, Y: 0})
	stale := sched.last(t)
	r.End()

	r.Start(Point{X: 50, Y: 50})
	stale.fire()

	assert.Equal(t, []string{"resizestart(0,0)", "resizeend(16,0)"}, rec.list())
}

func TestResize_SamplesIgnoredWhileIdle(t *testing.T) {
	r, rec, _, _ := newTestResizer(ResizeOptions{})

	r.Move(Point{X: 100, Y: 100})
	r.End()

	assert.Empty(t, rec.list())
}

func TestRawSample_Normalize(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		sample RawSample
		want   Point
		ok     bool
	}{
		{
			name:   "first touch wins over direct coordinates",
			sample: RawSample{X: f(1), Y: f(2), Touches: []TouchPoint{{X: 10, Y: 20}, {X: 99, Y: 99}}},
			want:   Point{X: 10, Y: 20},
			ok:     true,
		},
		{
			name:   "mouse shaped sample",
			sample: RawSample{X: f(3), Y: f(4)},
			want:   Point{X: 3, Y: 4},
			ok:     true,
		},
		{
			name:   "empty touchend carries no coordinate",
			sample: RawSample{},
			ok:     false,
		},
		{
			name:   "x without y is unusable",
			sample: RawSample{X: f(3)},
			ok:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := tc.sample.Normalize()
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, p)
			}
		})
	}
}
