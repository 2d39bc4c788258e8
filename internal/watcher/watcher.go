// Package watcher announces report files that appear in the reports
// directory without going through the submission API.
//
// Operators sometimes drop report files into the directory directly (cron
// jobs, scp, log shippers). The watcher scans the directory on an interval
// and announces any report newer than what it has already seen, so stream
// subscribers learn about those reports the same way they learn about API
// submissions.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkendal/reportcast/internal/hub"
)

// Watcher periodically scans the reports directory for new report files.
//
// The watcher announces only reports that appear after it starts: on the
// first scan it records the newest existing report as its baseline instead
// of re-broadcasting history. Reports published through the API are
// recognized (they match the hub's latest payload) and not announced a
// second time.
//
// All lifecycle methods are safe for concurrent use.
type Watcher struct {
	hub      *hub.Hub
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// lastSeen is the highest report ID already accounted for.
	lastSeen string
}

// New creates a [Watcher] scanning at the given interval.
func New(h *hub.Hub, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		hub:      h,
		interval: interval,
		logger:   logger,
	}
}

// Start begins scanning in a background goroutine until the context is
// cancelled or [Watcher.Stop] is called. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)

	// baseline: existing reports are history, not news
	w.baseline(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.scan(ctx)
			}
		}
	}()

	w.logger.Info("report directory watcher started", "interval", w.interval.String())
}

// Stop halts scanning and waits for the scan goroutine to exit.
// Safe to call multiple times or without a prior Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// baseline records the newest existing report without announcing it.
func (w *Watcher) baseline(ctx context.Context) {
	reports, err := w.hub.ListReports(ctx)
	if err != nil {
		w.logger.Warn("watcher baseline scan failed", "error", err)
		return
	}
	if len(reports) > 0 {
		// List returns newest first
		w.lastSeen = reports[0].ID
	}
}

// scan announces reports that appeared since the previous scan.
func (w *Watcher) scan(ctx context.Context) {
	reports, err := w.hub.ListReports(ctx)
	if err != nil {
		w.logger.Warn("watcher scan failed", "error", err)
		return
	}

	// collect the new IDs oldest-first so announcements preserve file order
	var fresh []string
	for _, r := range reports {
		if r.ID <= w.lastSeen {
			break
		}
		fresh = append(fresh, r.ID)
	}

	for i := len(fresh) - 1; i >= 0; i-- {
		id := fresh[i]
		w.lastSeen = id

		// reports published through the API are already the latest payload;
		// announcing them again would wake every subscriber with a duplicate
		if latest, ok := w.hub.Latest(); ok && latest.ReportID == id {
			continue
		}

		if _, err := w.hub.AnnounceReport(ctx, id); err != nil {
			w.logger.Warn("failed to announce report", "report_id", id, "error", err)
		}
	}
}
