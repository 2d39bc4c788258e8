package store

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyContent is returned when a save is attempted with no content.
// It signals a declined operation, not a server fault.
var ErrEmptyContent = errors.New("report content is required")

// ErrStorage wraps I/O failures while persisting a report (disk full,
// permission denied). Callers can test for it with [errors.Is]; the
// underlying cause remains reachable through the error chain.
var ErrStorage = errors.New("report storage failed")

// Report is one persisted report record. Reports are immutable once stored.
type Report struct {
	// ID is an opaque, timestamp-derived identifier.
	ID string `json:"report_id"`

	// Filename is the base name of the file holding the report.
	Filename string `json:"filename"`

	// Path is the absolute location of the report file.
	Path string `json:"filepath"`

	// Content is the report text as submitted.
	Content string `json:"content"`

	// CreatedAt is when the report was saved.
	CreatedAt time.Time `json:"created_at"`
}

// Store defines report persistence.
//
// Implementations must be safe for concurrent use: each Save targets its
// own record and must never corrupt unrelated records.
type Store interface {
	// Save persists content as a new report and returns its record.
	// Fails with [ErrEmptyContent] when content is empty and with an
	// [ErrStorage]-wrapped error when the write cannot complete.
	Save(ctx context.Context, content string) (Report, error)

	// List returns the stored reports, newest first. Content is not
	// loaded; use Load for the full record.
	List(ctx context.Context) ([]Report, error)

	// Load reads a stored report, including its content, by ID.
	Load(ctx context.Context, id string) (Report, error)
}
