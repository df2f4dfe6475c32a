package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"dragcal/internal/gesture"
	appLog "dragcal/internal/log"
	"dragcal/internal/manipulate"
	"dragcal/internal/transform"
)

// wsRequest is one client-to-server message on /ws/manipulate.
//
// A session opens with a begin message selecting the occurrence and mode,
// then streams raw pointer samples (touch or mouse shaped; see
// gesture.RawSample) as start/move/end/cancel.
type wsRequest struct {
	Type string `json:"type"`

	// begin fields
	SourceID    string `json:"source_id,omitempty"`
	UID         string `json:"uid,omitempty"`
	InstanceKey string `json:"instance_key,omitempty"`
	Mode        string `json:"mode,omitempty"`

	// pointer fields
	gesture.RawSample
}

// wsEvent is one server-to-client message: an engine notice or a protocol
// error.
type wsEvent struct {
	Type string `json:"type"`

	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	DX *float64 `json:"dx,omitempty"`
	DY *float64 `json:"dy,omitempty"`

	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	// Suppress asks the client to preventDefault on subsequent touch moves.
	Suppress bool `json:"suppress,omitempty"`

	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleManipulate upgrades to a websocket and runs one manipulation
// session per connection: pointer messages in, gesture/commit/reject
// notices out.
func (s *Server) handleManipulate(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		appLog.Error("websocket accept failed", err, "remote", r.RemoteAddr)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	appLog.Info("manipulation session opened", "remote", r.RemoteAddr)

	// Notices arrive from timer goroutines inside the engine; they are
	// funneled through a channel so only one goroutine writes to the socket.
	// The buffer absorbs preview bursts; dropping previews under pressure is
	// acceptable (they are lossy by design), and the buffer is far larger
	// than anything a terminal notice burst can produce.
	notices := make(chan manipulate.Notice, 64)

	ctrl := manipulate.New(ctx, s.controllerConfig(), s.repo, func(n manipulate.Notice) {
		select {
		case notices <- n:
		case <-ctx.Done():
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-notices:
				if err := writeEvent(ctx, ws, noticeEvent(n)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			// Disconnect mid-gesture counts as a platform cancel: an active
			// drag/resize still resolves to its terminal callback.
			ctrl.PointerCancel()
			appLog.Debug("manipulation session closed", "remote", r.RemoteAddr)
			return
		}

		var msg wsRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = writeEvent(ctx, ws, wsEvent{Type: "error", Error: "malformed message"})
			continue
		}

		switch msg.Type {
		case "begin":
			occ, ok := s.findOccurrence(ctx, msg.SourceID, msg.UID, msg.InstanceKey)
			if !ok {
				_ = writeEvent(ctx, ws, wsEvent{Type: "error", Error: "unknown occurrence"})
				continue
			}
			if err := ctrl.Begin(occ, manipulate.Mode(msg.Mode)); err != nil {
				_ = writeEvent(ctx, ws, wsEvent{Type: "error", Error: "unknown mode"})
				continue
			}

		case "start":
			if p, ok := msg.RawSample.Normalize(); ok {
				ctrl.PointerStart(p)
			}

		case "move":
			if p, ok := msg.RawSample.Normalize(); ok {
				ctrl.PointerMove(p)
			}

		case "end":
			ctrl.PointerEnd()

		case "cancel":
			ctrl.PointerCancel()

		default:
			_ = writeEvent(ctx, ws, wsEvent{Type: "error", Error: "unknown message type"})
		}
	}
}

// controllerConfig assembles the engine configuration from the app config.
func (s *Server) controllerConfig() manipulate.Config {
	g := s.cfg.Gesture
	grid := s.cfg.Grid

	minutesPerPixel := 0.0
	if grid.HourHeightPx > 0 {
		minutesPerPixel = 60.0 / grid.HourHeightPx
	}

	return manipulate.Config{
		Gesture: gesture.Options{
			DragThreshold:     g.DragThresholdPx,
			LongPressDuration: time.Duration(g.LongPressMs) * time.Millisecond,
			Throttle:          time.Duration(g.ThrottleMs) * time.Millisecond,
		},
		Resize: gesture.ResizeOptions{
			MinDragDistance: g.MinDragDistancePx,
			Throttle:        time.Duration(g.ThrottleMs) * time.Millisecond,
		},
		Grid: transform.Grid{
			MinutesPerPixel: minutesPerPixel,
			DayWidthPx:      grid.DayWidthPx,
		},
		SnapIntervalMinutes: grid.SnapIntervalMinutes,
		Policy: transform.Policy{
			MinimumDuration: time.Duration(grid.MinimumDurationMinutes) * time.Minute,
		},
	}
}

// noticeEvent converts an engine notice into its wire shape.
func noticeEvent(n manipulate.Notice) wsEvent {
	ev := wsEvent{Type: n.Type, Suppress: n.Suppress, Warning: n.Warning}

	switch n.Type {
	case "tap", "longpress", "dragstart":
		x, y := n.X, n.Y
		ev.X, ev.Y = &x, &y
	case "preview":
		dx, dy := n.DX, n.DY
		ev.DX, ev.DY = &dx, &dy
		start, end := n.Start, n.End
		ev.Start, ev.End = &start, &end
	case "committed":
		start, end := n.Start, n.End
		ev.Start, ev.End = &start, &end
	}
	return ev
}

func writeEvent(ctx context.Context, ws *websocket.Conn, ev wsEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
