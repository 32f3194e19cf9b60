package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 4096
	wsWriteTimeout    = 10 * time.Second

	// wsFetchWindow bounds each blocking hub fetch so idle connections still
	// get periodic pings and half-open peers are detected.
	wsFetchWindow = 25 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  wsReadBufferSize,
	WriteBufferSize: wsWriteBufferSize,
	CheckOrigin: func(*http.Request) bool {
		// The API binds to loopback unless the operator opts out, and token
		// auth covers remote binds. Origin filtering adds nothing here.
		return true
	},
}

// handleEventsWS pushes hub events over a websocket, one JSON message per
// event. The since query parameter sets the starting cursor; zero replays
// the buffered history before going live.
func (s *apiServer) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if !validateToken(r, s.token) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	since, _ := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log().Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine: consumes control frames and unblocks the writer when
	// the peer goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	hub := s.daemon.EventStream()
	cursor := since
	for {
		fetchCtx, fetchCancel := context.WithTimeout(ctx, wsFetchWindow)
		batch, _, err := hub.Fetch(fetchCtx, cursor, defaultEventsLimit, true)
		fetchCancel()

		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return
		}

		if len(batch) == 0 {
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
			continue
		}

		for _, evt := range batch {
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
		cursor = batch[len(batch)-1].Sequence
	}
}
