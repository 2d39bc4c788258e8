package reportcast

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mkendal/reportcast/internal/hub"
)

// rcConfig holds mutable state during ReportCast construction.
type rcConfig struct {
	title            string
	host             string
	port             int
	reportsDir       string
	watchInterval    time.Duration
	debug            bool
	logger           *slog.Logger
	publishCallbacks []func(hub.PublishResult)
}

// Option is a function that configures a [ReportCast] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithHost], [WithPort], [WithReportsDir],
// [WithWatchInterval], [WithDebug], [WithTitle], [WithLogger],
// [WithPublishCallback].
type Option func(*rcConfig) error

// WithHost sets the listen address for the HTTP server.
//
// Defaults to 127.0.0.1. Use "0.0.0.0" to accept connections from other
// hosts.
func WithHost(host string) Option {
	return func(cfg *rcConfig) error {
		if host == "" {
			return errors.New("host cannot be empty")
		}
		cfg.host = host
		return nil
	}
}

// WithPort sets the HTTP port for the submission API and notification
// streams.
//
// Defaults to 8002 if not specified.
//
// Example:
//
//	rc, err := reportcast.New(
//	    reportcast.WithPort(9000),
//	)
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *rcConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithReportsDir sets the directory where report files are written.
//
// The directory (including parents) is created by [New] if it does not
// exist. Defaults to "./reports".
func WithReportsDir(dir string) Option {
	return func(cfg *rcConfig) error {
		if dir == "" {
			return errors.New("reports directory cannot be empty")
		}
		cfg.reportsDir = dir
		return nil
	}
}

// WithWatchInterval enables the reports directory watcher.
//
// When enabled, report files that appear in the reports directory without
// going through the submission API (cron jobs, scp) are announced to
// subscribers at this cadence. Disabled by default.
//
// Returns an error if the interval is negative; zero disables the watcher.
func WithWatchInterval(d time.Duration) Option {
	return func(cfg *rcConfig) error {
		if d < 0 {
			return errors.New("watch interval must not be negative")
		}
		cfg.watchInterval = d
		return nil
	}
}

// WithDebug enables debug-level logging.
//
// Only effective when no custom logger is provided via [WithLogger]; a
// custom logger controls its own level.
func WithDebug(debug bool) Option {
	return func(cfg *rcConfig) error {
		cfg.debug = debug
		return nil
	}
}

// WithTitle sets the viewer page title displayed in the browser tab and
// header.
//
// If not specified, defaults to "reportcast".
func WithTitle(title string) Option {
	return func(cfg *rcConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the ReportCast instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	rc, err := reportcast.New(
//	    reportcast.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *rcConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithPublishCallback registers a function to be called after every
// successful publish.
//
// The callback receives a [PublishResult] containing the persisted report
// and the number of subscribers notified. Multiple callbacks may be
// registered; they execute in registration order.
//
// Callbacks must be non-blocking: they run synchronously on the publish
// path, after subscribers have been woken. Panics within callbacks are
// recovered and logged; they do not fail the publish.
//
// Nil callbacks are silently ignored.
func WithPublishCallback(cb func(PublishResult)) Option {
	return func(cfg *rcConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.publishCallbacks = append(cfg.publishCallbacks, cb)
		return nil
	}
}
