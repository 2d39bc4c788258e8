// Command example demonstrates embedding reportcast in an application.
//
// It starts a server on localhost:8002, publishes a report every few
// seconds from inside the process, and logs each publish through a
// callback. Open http://localhost:8002 in a browser to watch the reports
// arrive live, or subscribe from a terminal:
//
//	curl -N localhost:8002/api/events
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkendal/reportcast"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	rc, err := reportcast.New(
		reportcast.WithReportsDir("./reports"),
		reportcast.WithTitle("Example Reports"),
		reportcast.WithLogger(logger),
		reportcast.WithPublishCallback(func(r reportcast.PublishResult) {
			logger.Info("published",
				"report_id", r.Report.ID,
				"notified", r.Notified,
			)
		}),
	)
	if err != nil {
		logger.Error("failed to create reportcast", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// publish a demo report every few seconds
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		n := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n++
				content := fmt.Sprintf("demo report #%d, generated at %s", n, time.Now().Format(time.RFC3339))
				if _, err := rc.PublishReport(ctx, content); err != nil {
					logger.Error("publish failed", "error", err)
				}
			}
		}
	}()

	if err := rc.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
