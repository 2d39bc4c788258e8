package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// sseWriteTimeout is the maximum time allowed for a single SSE write
// operation. This prevents goroutine leaks when clients are slow or
// disconnected. Must be <= shutdown timeout to ensure clean shutdown.
const sseWriteTimeout = 5 * time.Second

// sseSink writes stream events as Server-Sent Events with write deadlines.
type sseSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	// deadlinesSupported tracks whether the underlying connection accepts
	// write deadlines (some ResponseWriter impls do not).
	deadlinesSupported bool

	logger *slog.Logger
}

func (s *sseSink) writeEvent(ev streamEvent) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	if s.deadlinesSupported {
		if err := s.rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
			// deadline not supported by underlying connection, continue without
			s.logger.Warn("sse write deadlines not supported", "error", err)
			s.deadlinesSupported = false
		}
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}

	// ResponseController.Flush respects the write deadline
	return s.rc.Flush()
}

// handleSSE streams new-report notifications via Server-Sent Events.
//
// The handler uses write deadlines so a blocked write to a slow or
// disconnected client times out rather than pinning the handler goroutine
// past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	session := &streamSession{
		hub: s.hub,
		sink: &sseSink{
			w:                  w,
			rc:                 http.NewResponseController(w),
			deadlinesSupported: true,
			logger:             s.logger,
		},
		logger: s.logger.With("transport", "sse"),
	}

	// request context is derived from the server context via BaseContext,
	// so the session ends on both client disconnect AND server shutdown
	session.run(r.Context())
}
