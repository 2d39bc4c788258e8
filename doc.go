// Package reportcast provides an embeddable report submission and
// notification server.
//
// A reportcast instance accepts text report submissions, persists each one
// as a timestamped file, and pushes a "new report available" notification
// to every connected subscriber over a long-lived stream (Server-Sent
// Events or WebSocket). Only the most recent report is retained for
// notification purposes: subscribers that fall behind observe the latest
// state, not a backlog of events.
//
// # Quick Start
//
// Create an instance and start it with graceful shutdown:
//
//	rc, _ := reportcast.New(reportcast.WithReportsDir("./reports"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	rc.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// reportcast uses the functional options pattern for configuration:
//
//	rc, err := reportcast.New(
//	    reportcast.WithHost("0.0.0.0"),
//	    reportcast.WithPort(9000),
//	    reportcast.WithReportsDir("/var/lib/reportcast/reports"),
//	    reportcast.WithTitle("Weekly Reports"),
//	)
//
// # Publishing
//
// Reports arrive either over HTTP (POST /api/reports) or programmatically:
//
//	result, err := rc.PublishReport(ctx, "this week: shipped the thing")
//	if err != nil {
//	    // reportcast.ErrEmptyContent for declined input,
//	    // reportcast.ErrStorage for persistence failures
//	}
//	log.Printf("notified %d subscribers", result.Notified)
//
// Publishing never waits on subscribers: a slow consumer only misses
// intermediate reports, it cannot delay a publish.
//
// # Subscribing
//
// Browser and CLI clients connect to GET /api/events (SSE) or GET /api/ws
// (WebSocket). Each client first receives a "connected" acknowledgment,
// then the current latest report if one exists, then one "report" event
// per subsequent publish. The current census is available at
// GET /api/subscribers and as a prometheus gauge at GET /metrics.
//
// # Architecture
//
// reportcast consists of several internal packages (under internal/):
//
//   - broadcast: the latest-value notification core
//   - store: timestamped file persistence for reports
//   - hub: composition of store and broadcast behind one publish operation
//   - server: HTTP transport adapters (REST, SSE, WebSocket)
//   - metrics: prometheus collectors
//
// The notification state is intentionally process-local and is not
// persisted across restarts: it is a liveness signal about the current
// process, not a historical log. The report files themselves are durable.
package reportcast
