package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mkendal/reportcast/internal/metrics"
	"github.com/mkendal/reportcast/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return New(st, metrics.New(), testLogger())
}

func TestPublishReport(t *testing.T) {
	h := newTestHub(t)

	result, err := h.PublishReport(context.Background(), "weekly summary")
	if err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}

	if result.Report.Content != "weekly summary" {
		t.Errorf("Report.Content = %q, want %q", result.Report.Content, "weekly summary")
	}
	if result.Report.ID == "" {
		t.Error("Report.ID = empty string")
	}
	if result.Notified != 0 {
		t.Errorf("Notified = %d with no subscribers, want 0", result.Notified)
	}

	latest, ok := h.Latest()
	if !ok {
		t.Fatal("Latest() reported no payload after publish")
	}
	if latest.ReportID != result.Report.ID {
		t.Errorf("Latest().ReportID = %q, want %q", latest.ReportID, result.Report.ID)
	}
}

func TestPublishReport_EmptyContent(t *testing.T) {
	h := newTestHub(t)

	// seed a payload so we can verify it survives the failed publish
	if _, err := h.PublishReport(context.Background(), "existing"); err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}
	before, _ := h.Latest()

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	// drain the primed payload
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := sub.Next(ctx); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	_, err := h.PublishReport(context.Background(), "")
	if !errors.Is(err, store.ErrEmptyContent) {
		t.Errorf("PublishReport(\"\") error = %v, want ErrEmptyContent", err)
	}

	// latest unchanged, nobody woken
	after, _ := h.Latest()
	if after != before {
		t.Errorf("Latest() changed after failed publish: %+v -> %+v", before, after)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	if p, err := sub.Next(waitCtx); err == nil {
		t.Errorf("subscriber woken by failed publish with payload %q", p.ReportID)
	}
}

func TestPublishReport_NotifiesSubscribers(t *testing.T) {
	h := newTestHub(t)

	s1 := h.Subscribe()
	defer h.Unsubscribe(s1)
	s2 := h.Subscribe()
	defer h.Unsubscribe(s2)

	result, err := h.PublishReport(context.Background(), "content")
	if err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}
	if result.Notified != 2 {
		t.Errorf("Notified = %d, want 2", result.Notified)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p1, err := s1.Next(ctx)
	if err != nil {
		t.Fatalf("s1.Next() error = %v", err)
	}
	p2, err := s2.Next(ctx)
	if err != nil {
		t.Fatalf("s2.Next() error = %v", err)
	}
	if p1.ReportID != result.Report.ID || p2.ReportID != result.Report.ID {
		t.Errorf("subscribers saw %q and %q, want %q", p1.ReportID, p2.ReportID, result.Report.ID)
	}
}

func TestSubscriberCount(t *testing.T) {
	h := newTestHub(t)

	if got := h.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}

	s1 := h.Subscribe()
	s2 := h.Subscribe()
	if got := h.SubscriberCount(); got != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", got)
	}

	h.Unsubscribe(s1)
	if got := h.SubscriberCount(); got != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", got)
	}
	h.Unsubscribe(s2)
	if got := h.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

func TestAnnounceReport(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	h := New(st, metrics.New(), testLogger())
	ctx := context.Background()

	saved, err := st.Save(ctx, "dropped in")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	result, err := h.AnnounceReport(ctx, saved.ID)
	if err != nil {
		t.Fatalf("AnnounceReport() error = %v", err)
	}
	if result.Notified != 1 {
		t.Errorf("Notified = %d, want 1", result.Notified)
	}

	nextCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	p, err := sub.Next(nextCtx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != saved.ID || p.Content != "dropped in" {
		t.Errorf("announced payload = {%q, %q}, want {%q, dropped in}", p.ReportID, p.Content, saved.ID)
	}
}

func TestAnnounceReport_Unknown(t *testing.T) {
	h := newTestHub(t)

	if _, err := h.AnnounceReport(context.Background(), "20200101_000000"); err == nil {
		t.Error("AnnounceReport() with unknown id succeeded, want error")
	}
}

func TestListReports(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	if _, err := h.PublishReport(ctx, "content"); err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}

	reports, err := h.ListReports(ctx)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("ListReports() = %d reports, want 1", len(reports))
	}
}

func TestPublishCallback(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	var got []PublishResult
	h := New(st, metrics.New(), testLogger(), func(r PublishResult) {
		got = append(got, r)
	})

	if _, err := h.PublishReport(context.Background(), "content"); err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("callback invoked %d times, want 1", len(got))
	}
	if got[0].Report.Content != "content" {
		t.Errorf("callback Report.Content = %q, want %q", got[0].Report.Content, "content")
	}
}

func TestPublishCallback_PanicRecovered(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	h := New(st, metrics.New(), testLogger(), func(PublishResult) {
		panic("callback exploded")
	})

	// must not panic through PublishReport
	if _, err := h.PublishReport(context.Background(), "content"); err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}
}
