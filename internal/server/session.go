package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mkendal/reportcast/internal/broadcast"
	"github.com/mkendal/reportcast/internal/hub"
)

const (
	// shutdownGrace is the graceful shutdown window for the HTTP server.
	shutdownGrace = 5 * time.Second

	eventConnected = "connected"
	eventReport    = "report"
)

// streamEvent is the wire format shared by the SSE and WebSocket adapters.
type streamEvent struct {
	Event    string `json:"event"`
	Message  string `json:"message,omitempty"`
	ReportID string `json:"report_id,omitempty"`
	Content  string `json:"content,omitempty"`
}

// eventSink is the write half of one streaming transport. Implementations
// serialize the event and push it to the wire; a returned error means the
// transport is dead and the session must close.
type eventSink interface {
	writeEvent(ev streamEvent) error
}

// streamSession is the per-subscriber lifecycle shared by all streaming
// transports: register, acknowledge, forward payloads, tear down.
//
// The session moves through three states. Connecting: subscribe to the hub
// and send the initial acknowledgment. Streaming: block on the
// subscription, forwarding each payload to the sink. Closed: unregister
// exactly once, reached on either transport failure or context
// cancellation.
type streamSession struct {
	hub    *hub.Hub
	sink   eventSink
	logger *slog.Logger
}

// run drives the session until the transport fails or ctx is cancelled.
//
// A write failure is a disconnect of this subscriber only; it is logged at
// debug level and never surfaces to other subscribers or to publishers.
func (s *streamSession) run(ctx context.Context) {
	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	logger := s.logger.With("subscriber_id", sub.ID())
	logger.Info("subscriber connected", "total", s.hub.SubscriberCount())
	defer func() {
		logger.Info("subscriber disconnected", "total", s.hub.SubscriberCount())
	}()

	if err := s.sink.writeEvent(streamEvent{
		Event:   eventConnected,
		Message: "connected to reportcast notification stream",
	}); err != nil {
		logger.Debug("initial ack write failed", "error", err)
		return
	}

	// Streaming: the subscription was primed with the current latest
	// payload (if any) at subscribe time, so a fresh subscriber receives
	// it on the first iteration without waiting for a new publish.
	for {
		payload, err := sub.Next(ctx)
		if err != nil {
			// cancellation: client went away or the server is shutting down
			return
		}
		if err := s.sink.writeEvent(reportEvent(payload)); err != nil {
			logger.Debug("stream write failed", "error", err)
			return
		}
	}
}

// reportEvent converts a broadcast payload to its wire event.
func reportEvent(p broadcast.Payload) streamEvent {
	return streamEvent{
		Event:    eventReport,
		ReportID: p.ReportID,
		Content:  p.Content,
	}
}

// encodeEvent serializes an event to its JSON wire form.
func encodeEvent(ev streamEvent) ([]byte, error) {
	return json.Marshal(ev)
}
