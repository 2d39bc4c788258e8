package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	b := New()
	if b == nil {
		t.Fatal("New() = nil")
	}

	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
	if got := b.Generation(); got != 0 {
		t.Errorf("Generation() = %d, want 0", got)
	}
	if _, ok := b.Latest(); ok {
		t.Error("Latest() reported a payload before any publish")
	}
}

func TestPublish_SetsLatestAndGeneration(t *testing.T) {
	b := New()

	b.Publish(Payload{ReportID: "r1", Content: "Report A"})

	latest, ok := b.Latest()
	if !ok {
		t.Fatal("Latest() reported no payload after publish")
	}
	if latest.ReportID != "r1" {
		t.Errorf("Latest().ReportID = %q, want %q", latest.ReportID, "r1")
	}
	if latest.Generation != 1 {
		t.Errorf("Latest().Generation = %d, want 1", latest.Generation)
	}

	b.Publish(Payload{ReportID: "r2", Content: "Report B"})

	latest, _ = b.Latest()
	if latest.ReportID != "r2" {
		t.Errorf("Latest().ReportID = %q, want %q", latest.ReportID, "r2")
	}
	if latest.Generation != 2 {
		t.Errorf("Latest().Generation = %d, want 2", latest.Generation)
	}
}

func TestPublish_ReturnsNotifiedCount(t *testing.T) {
	b := New()

	if got := b.Publish(Payload{ReportID: "r1"}); got != 0 {
		t.Errorf("Publish() with no subscribers = %d, want 0", got)
	}

	s1 := b.Subscribe()
	defer s1.Close()
	s2 := b.Subscribe()
	defer s2.Close()

	if got := b.Publish(Payload{ReportID: "r2"}); got != 2 {
		t.Errorf("Publish() with two subscribers = %d, want 2", got)
	}
}

func TestSubscribe_ReceivesPublish(t *testing.T) {
	b := New()

	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Payload{ReportID: "r1", Content: "Report A"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != "r1" || p.Content != "Report A" {
		t.Errorf("Next() = {%q, %q}, want {r1, Report A}", p.ReportID, p.Content)
	}
}

// A subscriber joining after a publish must immediately observe the current
// latest payload without waiting for a fresh publish.
func TestSubscribe_LateJoinerGetsLatest(t *testing.T) {
	b := New()
	b.Publish(Payload{ReportID: "r1", Content: "Report A"})

	sub := b.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != "r1" {
		t.Errorf("Next().ReportID = %q, want %q", p.ReportID, "r1")
	}
}

// Two publishes issued before the subscriber wakes coalesce into the second
// payload only.
func TestPublish_Coalesces(t *testing.T) {
	b := New()

	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Payload{ReportID: "r1", Content: "Report A"})
	b.Publish(Payload{ReportID: "r2", Content: "Report B"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != "r2" {
		t.Errorf("first Next().ReportID = %q, want %q (older payload must be superseded)", p.ReportID, "r2")
	}

	// nothing further should be pending
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	if p, err := sub.Next(waitCtx); err == nil {
		t.Errorf("Next() after drain = {%q}, want timeout (no backlog)", p.ReportID)
	}
}

// The concrete end-to-end scenario: publish, subscribe, publish again, then
// a second late subscriber.
func TestBroadcaster_Scenario(t *testing.T) {
	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	b.Publish(Payload{ReportID: "r1", Content: "Report A"})

	s1 := b.Subscribe()
	defer s1.Close()

	p, err := s1.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != "r1" || p.Content != "Report A" {
		t.Errorf("first event = {%q, %q}, want {r1, Report A}", p.ReportID, p.Content)
	}

	b.Publish(Payload{ReportID: "r2", Content: "Report B"})

	p, err = s1.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != "r2" || p.Content != "Report B" {
		t.Errorf("second event = {%q, %q}, want {r2, Report B}", p.ReportID, p.Content)
	}

	s2 := b.Subscribe()
	defer s2.Close()

	p, err = s2.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if p.ReportID != "r2" || p.Content != "Report B" {
		t.Errorf("late joiner's first event = {%q, %q}, want {r2, Report B}", p.ReportID, p.Content)
	}
}

func TestNext_Cancellation(t *testing.T) {
	b := New()

	sub := b.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Next(ctx)
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Next() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not return after cancellation")
	}
}

// Cancelling one subscriber must not block a concurrent publish or affect
// other subscribers, and must decrement the census by exactly one.
func TestClose_DoesNotDisturbOthers(t *testing.T) {
	b := New()

	s1 := b.Subscribe()
	s2 := b.Subscribe()
	defer s2.Close()

	if got := b.SubscriberCount(); got != 2 {
		t.Fatalf("SubscriberCount() = %d, want 2", got)
	}

	s1.Close()

	if got := b.SubscriberCount(); got != 1 {
		t.Errorf("SubscriberCount() after Close = %d, want 1", got)
	}

	if got := b.Publish(Payload{ReportID: "r1"}); got != 1 {
		t.Errorf("Publish() after Close = %d notified, want 1", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p, err := s2.Next(ctx)
	if err != nil {
		t.Fatalf("surviving subscriber Next() error = %v", err)
	}
	if p.ReportID != "r1" {
		t.Errorf("surviving subscriber Next().ReportID = %q, want %q", p.ReportID, "r1")
	}
}

func TestClose_Idempotent(t *testing.T) {
	b := New()

	sub := b.Subscribe()
	sub.Close()
	sub.Close() // must not panic or double-unregister

	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

// A subscriber observing a sequence of publishes sees non-decreasing
// generations and ends on the final payload.
func TestSubscriber_ObservesMonotonicGenerations(t *testing.T) {
	b := New()

	sub := b.Subscribe()
	defer sub.Close()

	const publishes = 100

	done := make(chan struct{})
	var lastSeen Payload
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for {
			p, err := sub.Next(ctx)
			if err != nil {
				return
			}
			if p.Generation < lastSeen.Generation {
				t.Errorf("generation went backwards: %d after %d", p.Generation, lastSeen.Generation)
			}
			lastSeen = p
			if p.Generation == publishes {
				return
			}
		}
	}()

	for i := 1; i <= publishes; i++ {
		b.Publish(Payload{ReportID: "r", Content: "c"})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber never observed the final publish")
	}

	if lastSeen.Generation != publishes {
		t.Errorf("last observed generation = %d, want %d", lastSeen.Generation, publishes)
	}
}

// Concurrent publishers, joiners and leavers must not race, deadlock, or
// corrupt the census.
func TestBroadcaster_ConcurrentChurn(t *testing.T) {
	b := New()

	const (
		publishers  = 4
		subscribers = 20
		publishes   = 50
	)

	var wg sync.WaitGroup

	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < publishes; j++ {
				b.Publish(Payload{ReportID: "r", Content: "c"})
			}
		}()
	}

	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			for {
				if _, err := sub.Next(ctx); err != nil {
					break
				}
			}
			sub.Close()
		}()
	}

	wg.Wait()

	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after churn = %d, want 0", got)
	}
	if got := b.Generation(); got != publishers*publishes {
		t.Errorf("Generation() = %d, want %d", got, publishers*publishes)
	}
}

// A stalled subscriber (never calling Next) must not delay publishes.
func TestPublish_NeverBlocksOnStalledSubscriber(t *testing.T) {
	b := New()

	stalled := b.Subscribe()
	defer stalled.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(Payload{ReportID: "r", Content: "c"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publishes blocked behind a stalled subscriber")
	}
}

func TestSubscription_Identity(t *testing.T) {
	b := New()

	s1 := b.Subscribe()
	defer s1.Close()
	s2 := b.Subscribe()
	defer s2.Close()

	if s1.ID() == "" {
		t.Error("ID() = empty string")
	}
	if s1.ID() == s2.ID() {
		t.Errorf("two subscriptions share ID %q", s1.ID())
	}
	if s1.JoinedAt().IsZero() {
		t.Error("JoinedAt() = zero time")
	}
}
