// Package server exposes the reportcast hub over HTTP.
//
// This package is internal to reportcast. It provides the REST surface for
// submitting reports, two streaming transports (Server-Sent Events and
// WebSocket) that deliver new-report notifications to live subscribers,
// the operator census and prometheus endpoints, and the embedded live
// viewer page.
//
// The streaming transports are thin adapters over one shared stream
// session state machine; they differ only in how a serialized event is
// written to the wire. The server is designed for graceful shutdown via
// context cancellation.
package server
