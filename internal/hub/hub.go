// Package hub composes report persistence with subscriber notification.
//
// The hub is the seam between inbound submissions and the broadcast core:
// a publish persists the report first, then replaces the broadcaster's
// latest payload and wakes every live subscriber. Transport adapters (SSE,
// WebSocket, REST) depend only on the hub.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkendal/reportcast/internal/broadcast"
	"github.com/mkendal/reportcast/internal/metrics"
	"github.com/mkendal/reportcast/internal/store"
)

// PublishResult describes a completed publish.
type PublishResult struct {
	// Report is the persisted report record.
	Report store.Report

	// Notified is the number of subscribers woken by the publish.
	Notified int
}

// Hub wires a [store.Store] to a [broadcast.Broadcaster].
//
// All methods are safe for concurrent use. The hub owns no state of its
// own beyond its collaborators; its lifetime is tied to the server's.
type Hub struct {
	store       store.Store
	broadcaster *broadcast.Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger
	callbacks   []func(PublishResult)
}

// New creates a [Hub] over the given store.
func New(st store.Store, m *metrics.Metrics, logger *slog.Logger, callbacks ...func(PublishResult)) *Hub {
	return &Hub{
		store:       st,
		broadcaster: broadcast.New(),
		metrics:     m,
		logger:      logger,
		callbacks:   callbacks,
	}
}

// PublishReport persists content and notifies all live subscribers.
//
// Empty content fails with [store.ErrEmptyContent] before anything is
// written or anyone is woken; the broadcaster's latest payload is
// unchanged. Storage failures likewise leave the notification state
// untouched: a report that was never persisted is never announced.
func (h *Hub) PublishReport(ctx context.Context, content string) (PublishResult, error) {
	if content == "" {
		h.metrics.PublishErrors.WithLabelValues("empty_content").Inc()
		return PublishResult{}, store.ErrEmptyContent
	}

	report, err := h.store.Save(ctx, content)
	if err != nil {
		if !errors.Is(err, store.ErrEmptyContent) {
			h.metrics.PublishErrors.WithLabelValues("storage").Inc()
		}
		return PublishResult{}, fmt.Errorf("saving report: %w", err)
	}

	notified := h.broadcaster.Publish(broadcast.Payload{
		ReportID: report.ID,
		Content:  report.Content,
	})

	h.metrics.ReportsPublished.Inc()
	h.metrics.SubscribersNotified.Add(float64(notified))

	h.logger.Info("report published",
		"report_id", report.ID,
		"filename", report.Filename,
		"subscribers_notified", notified,
	)

	result := PublishResult{Report: report, Notified: notified}
	for _, cb := range h.callbacks {
		h.invokeCallbackSafe(cb, result)
	}
	return result, nil
}

// AnnounceReport notifies subscribers about a report that is already
// persisted, without writing anything. Used by the directory watcher when
// a report file appears outside the submission API.
func (h *Hub) AnnounceReport(ctx context.Context, id string) (PublishResult, error) {
	report, err := h.store.Load(ctx, id)
	if err != nil {
		return PublishResult{}, fmt.Errorf("loading report: %w", err)
	}

	notified := h.broadcaster.Publish(broadcast.Payload{
		ReportID: report.ID,
		Content:  report.Content,
	})

	h.metrics.ReportsPublished.Inc()
	h.metrics.SubscribersNotified.Add(float64(notified))

	h.logger.Info("report announced",
		"report_id", report.ID,
		"filename", report.Filename,
		"subscribers_notified", notified,
	)

	result := PublishResult{Report: report, Notified: notified}
	for _, cb := range h.callbacks {
		h.invokeCallbackSafe(cb, result)
	}
	return result, nil
}

// Subscribe registers a new stream subscriber.
//
// The returned subscription is pre-loaded with the current latest payload,
// if one exists. The caller must Close it; the subscriber gauge tracks the
// registration either way.
func (h *Hub) Subscribe() *broadcast.Subscription {
	sub := h.broadcaster.Subscribe()
	h.metrics.ActiveSubscribers.Set(float64(h.broadcaster.SubscriberCount()))
	return sub
}

// Unsubscribe closes a subscription and updates the subscriber gauge.
func (h *Hub) Unsubscribe(sub *broadcast.Subscription) {
	sub.Close()
	h.metrics.ActiveSubscribers.Set(float64(h.broadcaster.SubscriberCount()))
}

// Latest returns the most recently published payload, if any.
func (h *Hub) Latest() (broadcast.Payload, bool) {
	return h.broadcaster.Latest()
}

// SubscriberCount returns the number of currently connected subscribers.
func (h *Hub) SubscriberCount() int {
	return h.broadcaster.SubscriberCount()
}

// ListReports returns the persisted reports, newest first.
func (h *Hub) ListReports(ctx context.Context) ([]store.Report, error) {
	return h.store.List(ctx)
}

// invokeCallbackSafe runs a publish callback, recovering panics so a
// misbehaving callback cannot take down the publish path.
func (h *Hub) invokeCallbackSafe(cb func(PublishResult), result PublishResult) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("publish callback panicked", "panic", r)
		}
	}()
	cb(result)
}
