package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkendal/reportcast/internal/hub"
	"github.com/mkendal/reportcast/internal/store"
)

const (
	// defaultTitle is used when no custom title is configured.
	defaultTitle = "reportcast"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Server handles HTTP requests for report submission, streaming and
// introspection.
//
// Server provides these endpoints:
//   - GET  /: serves the embedded live viewer page
//   - POST /api/reports: persists a report and notifies subscribers
//   - GET  /api/reports: lists stored reports
//   - GET  /api/reports/latest: returns the most recent notification payload
//   - GET  /api/events: Server-Sent Events notification stream
//   - GET  /api/ws: WebSocket notification stream
//   - GET  /api/subscribers: subscriber census
//   - GET  /metrics: prometheus metrics
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	hub        *hub.Hub
	host       string
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	registry   *prometheus.Registry
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - h: the hub connecting persistence and broadcast
//   - host, port: TCP listen address
//   - assets: embedded filesystem containing the viewer page (may be nil)
//   - title: viewer page title (defaults to "reportcast" if empty)
//   - registry: prometheus registry to expose at /metrics (may be nil)
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(h *hub.Hub, host string, port int, assets fs.FS, title string, registry *prometheus.Registry, logger *slog.Logger) *Server {
	return &Server{
		hub:      h,
		host:     host,
		port:     port,
		assets:   assets,
		title:    title,
		registry: registry,
		logger:   logger,
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a
// 5-second timeout.
//
// Returns an error if the server fails to bind to the configured address.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("POST /api/reports", s.handlePublish)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/latest", s.handleLatest)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/subscribers", s.handleSubscribers)

	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// serve the live viewer page
	if s.assets != nil {
		mux.HandleFunc("/", s.handleViewer)
	}

	// create listener first to verify address availability synchronously
	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running stream handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// publishRequest is the JSON body accepted by POST /api/reports.
type publishRequest struct {
	Content string `json:"content"`
}

// publishResponse is the JSON reply for POST /api/reports.
//
// The shape mirrors the streaming "report" event plus submission metadata,
// so CLI and browser clients share one vocabulary.
type publishResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message,omitempty"`
	ReportID            string `json:"report_id,omitempty"`
	Filename            string `json:"filename,omitempty"`
	Filepath            string `json:"filepath,omitempty"`
	SubscribersNotified int    `json:"subscribers_notified"`
	Error               string `json:"error,omitempty"`
}

// handlePublish accepts a report submission, persists it and wakes all
// live subscribers.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, publishResponse{
			Success: false,
			Error:   "request body must be JSON with a content field",
		})
		return
	}

	result, err := s.hub.PublishReport(r.Context(), req.Content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrEmptyContent) {
			// declined input, not a server fault
			status = http.StatusBadRequest
		}
		s.logger.Warn("publish rejected", "error", err)
		s.writeJSON(w, status, publishResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusCreated, publishResponse{
		Success:             true,
		Message:             "report saved and subscribers notified",
		ReportID:            result.Report.ID,
		Filename:            result.Report.Filename,
		Filepath:            result.Report.Path,
		SubscribersNotified: result.Notified,
	})
}

// handleListReports returns the stored reports, newest first.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.hub.ListReports(r.Context())
	if err != nil {
		s.logger.Error("failed to list reports", "error", err)
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

// handleLatest returns the most recent notification payload, or 404 if
// nothing has been published yet.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.hub.Latest()
	if !ok {
		http.Error(w, "no report published yet", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, latest)
}

// handleSubscribers returns the current subscriber census.
func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"subscribers": s.hub.SubscriberCount(),
	})
}

// handleViewer serves the live viewer page.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "viewer not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	safeTitle := html.EscapeString(title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write viewer response", "error", err)
	}
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
