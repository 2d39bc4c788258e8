package reportcast

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mkendal/reportcast/internal/broadcast"
	"github.com/mkendal/reportcast/internal/hub"
	"github.com/mkendal/reportcast/internal/metrics"
	"github.com/mkendal/reportcast/internal/server"
	"github.com/mkendal/reportcast/internal/store"
	"github.com/mkendal/reportcast/internal/watcher"
	"github.com/mkendal/reportcast/viewer"
)

const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 8002
	defaultReportsDir = "reports"
)

// ErrEmptyContent is returned by [ReportCast.PublishReport] when the
// submitted content is empty. It signals declined input, not a fault.
var ErrEmptyContent = store.ErrEmptyContent

// ErrStorage wraps persistence failures (disk full, permission denied).
var ErrStorage = store.ErrStorage

// Report is one persisted report record.
type Report = store.Report

// Payload is the notification delivered to stream subscribers.
type Payload = broadcast.Payload

// PublishResult describes a completed publish: the persisted report and
// the number of subscribers woken.
type PublishResult = hub.PublishResult

// ReportCast is the main orchestrator for report persistence and
// subscriber notification.
//
// A ReportCast owns one report store, one broadcast core and one HTTP
// server. It is created with [New] and started with [ReportCast.Start];
// the caller controls the lifecycle via context cancellation.
type ReportCast struct {
	title         string
	host          string
	port          int
	reportsDir    string
	watchInterval time.Duration
	logger        *slog.Logger

	hub     *hub.Hub
	metrics *metrics.Metrics
}

// New creates a new [ReportCast] instance with the given options.
//
// All options have defaults: listen on 127.0.0.1:8002 and write reports to
// ./reports. The reports directory is created immediately so configuration
// errors surface at construction, not at first publish.
//
// Example:
//
//	rc, err := reportcast.New(
//	    reportcast.WithPort(9000),
//	    reportcast.WithReportsDir("/var/lib/reportcast/reports"),
//	)
func New(opts ...Option) (*ReportCast, error) {
	cfg := &rcConfig{
		host:       defaultHost,
		port:       defaultPort,
		reportsDir: defaultReportsDir,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided; debug mode gets a
	// debug-level handler instead
	logger := cfg.logger
	if logger == nil {
		if cfg.debug {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))
		} else {
			logger = slog.Default()
		}
	}

	st, err := store.NewFileStore(cfg.reportsDir)
	if err != nil {
		return nil, fmt.Errorf("initializing report store: %w", err)
	}

	m := metrics.New()

	return &ReportCast{
		title:         cfg.title,
		host:          cfg.host,
		port:          cfg.port,
		reportsDir:    st.Dir(),
		watchInterval: cfg.watchInterval,
		logger:        logger,
		hub:           hub.New(st, m, logger, cfg.publishCallbacks...),
		metrics:       m,
	}, nil
}

// Start begins serving submissions and notification streams.
//
// Start is a blocking call that runs until the provided context is
// cancelled. For signal handling, use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	rc.Start(ctx)
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (rc *ReportCast) Start(ctx context.Context) error {
	rc.logger.Info("reportcast starting",
		"addr", fmt.Sprintf("%s:%d", rc.host, rc.port),
		"reports_dir", rc.reportsDir,
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	// start the directory watcher when enabled
	var w *watcher.Watcher
	if rc.watchInterval > 0 {
		w = watcher.New(rc.hub, rc.watchInterval, rc.logger)
		w.Start(ctx)
	}

	httpServer := server.NewServer(rc.hub, rc.host, rc.port, viewer.Assets, rc.title, rc.metrics.Registry(), rc.logger)
	if err := httpServer.Start(ctx); err != nil {
		if w != nil {
			w.Stop()
		}
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	if w != nil {
		w.Stop()
	}
	rc.logger.Info("reportcast stopped")
	return nil
}

// PublishReport persists content and notifies all live subscribers.
//
// Fails with [ErrEmptyContent] for empty content (nothing is written,
// nobody wakes) and with an [ErrStorage]-wrapped error when persistence
// fails. Safe to call concurrently, including while Start is serving.
func (rc *ReportCast) PublishReport(ctx context.Context, content string) (PublishResult, error) {
	return rc.hub.PublishReport(ctx, content)
}

// Latest returns the most recently published notification payload and
// whether any report has been published yet.
func (rc *ReportCast) Latest() (Payload, bool) {
	return rc.hub.Latest()
}

// SubscriberCount returns the number of currently connected subscribers.
func (rc *ReportCast) SubscriberCount() int {
	return rc.hub.SubscriberCount()
}

// ReportsDir returns the absolute directory report files are written to.
func (rc *ReportCast) ReportsDir() string {
	return rc.reportsDir
}

// Addr returns the configured listen address.
func (rc *ReportCast) Addr() string {
	return fmt.Sprintf("%s:%d", rc.host, rc.port)
}
