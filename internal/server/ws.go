package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsWriteTimeout bounds a single WebSocket write so a dead peer cannot pin
// the session goroutine past shutdown.
const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The stream is broadcast-only and carries no credentials; browsers on
	// any origin may subscribe, matching the SSE endpoint's CORS posture.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSink writes stream events as WebSocket text messages.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) writeEvent(ev streamEvent) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebSocket streams new-report notifications over a WebSocket.
//
// The connection is one-directional after the upgrade: the server pushes
// events, and any message from the client is discarded. The read loop
// exists only to detect the close handshake.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames; a read error (including the close handshake)
	// cancels the session.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	session := &streamSession{
		hub:    s.hub,
		sink:   &wsSink{conn: conn},
		logger: s.logger.With("transport", "websocket"),
	}
	session.run(ctx)
}
