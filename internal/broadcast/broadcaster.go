package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Payload is the notification delivered to subscribers when a report is
// published.
//
// Exactly one logical "latest" Payload exists inside a [Broadcaster] at any
// time; each publish replaces it. Generation identifies the publish that
// produced the payload and increases monotonically, so consumers can detect
// "is this newer than what I last saw".
type Payload struct {
	// ReportID identifies the published report.
	ReportID string `json:"report_id"`

	// Content is the full report text.
	Content string `json:"content"`

	// Generation is the publish sequence number, starting at 1.
	Generation uint64 `json:"-"`
}

// Broadcaster is the latest-value notification core.
//
// A Broadcaster retains the single most recent [Payload] and wakes every
// currently-registered subscriber once per publish. Subscribers join and
// leave at arbitrary times; a new subscriber immediately observes the
// current latest payload (if any) as its first element.
//
// All methods are safe for concurrent use, including multiple concurrent
// publishers. Publish never waits on subscriber behavior: a slow or stalled
// subscriber only misses intermediate payloads, it cannot delay a publish.
type Broadcaster struct {
	// mu protects latest and generation, and serializes publishers so that
	// the drain-then-send on each subscriber slot can never block.
	mu         sync.Mutex
	latest     Payload
	hasLatest  bool
	generation uint64

	registry *Registry
}

// New creates a ready-to-use [Broadcaster] with no payload and no
// subscribers.
func New() *Broadcaster {
	return &Broadcaster{
		registry: NewRegistry(),
	}
}

// Publish replaces the broadcaster's latest payload and wakes all current
// subscribers.
//
// The payload's Generation field is assigned by Publish; any value set by
// the caller is overwritten. Returns the number of subscribers notified,
// observed at wake time.
//
// Publish completes without waiting on any subscriber: each subscriber's
// slot holds at most one payload and is drained before the send, so a
// subscriber that has not consumed the previous payload simply has it
// superseded.
func (b *Broadcaster) Publish(p Payload) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	p.Generation = b.generation
	b.latest = p
	b.hasLatest = true

	subs := b.registry.snapshot()
	for _, sub := range subs {
		// Drop the superseded payload, if any, then deliver the new one.
		// The slot has capacity 1 and only publishers (serialized by b.mu)
		// send on it, so the send cannot block.
		select {
		case <-sub.slot:
		default:
		}
		sub.slot <- p
	}
	return len(subs)
}

// Subscribe registers a new subscriber and returns its [Subscription].
//
// If a payload has already been published, it is pre-loaded into the
// subscription so the first call to [Subscription.Next] returns it
// immediately; a newly joined subscriber never misses the most recent
// report. The caller must call [Subscription.Close] when done.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		id:       uuid.NewString(),
		joinedAt: time.Now(),
		slot:     make(chan Payload, 1),
		b:        b,
	}

	b.mu.Lock()
	if b.hasLatest {
		sub.slot <- b.latest
	}
	b.registry.add(sub)
	b.mu.Unlock()

	return sub
}

// Latest returns the most recent payload and whether one has been published
// yet.
func (b *Broadcaster) Latest() (Payload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.hasLatest
}

// Generation returns the number of publishes performed so far.
func (b *Broadcaster) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// SubscriberCount returns the number of currently registered subscribers.
//
// The count is observed concurrently with joins and leaves, so it may be
// momentarily stale, but it never drifts permanently.
func (b *Broadcaster) SubscriberCount() int {
	return b.registry.Count()
}

// Subscription is one subscriber's handle onto a [Broadcaster].
//
// A Subscription is owned by the stream session that created it; no other
// goroutine may Close it. Next and Close may be called from different
// goroutines (a session's writer and its cancellation path).
type Subscription struct {
	id       string
	joinedAt time.Time

	// slot holds at most the newest undelivered payload.
	slot chan Payload

	b         *Broadcaster
	closeOnce sync.Once
}

// ID returns the subscription's opaque identifier.
func (s *Subscription) ID() string { return s.id }

// JoinedAt returns when the subscription was created.
func (s *Subscription) JoinedAt() time.Time { return s.joinedAt }

// Next blocks until a payload newer than the last delivered one is
// available, or the context is cancelled.
//
// Next is the subscriber's only suspension point. On cancellation it
// returns the context's error; the caller is expected to Close the
// subscription afterwards.
func (s *Subscription) Next(ctx context.Context) (Payload, error) {
	select {
	case p := <-s.slot:
		return p, nil
	case <-ctx.Done():
		return Payload{}, ctx.Err()
	}
}

// Close unregisters the subscription from its broadcaster.
//
// Close is idempotent and never disturbs other subscribers or an in-flight
// Publish. After Close, Next will only return via context cancellation (or
// a payload that was already in flight).
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.b.registry.remove(s)
	})
}
