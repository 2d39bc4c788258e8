package broadcast

import "sync"

// Registry tracks the subscriptions that are currently active.
//
// The registry backs both the publish fan-out and the operator-facing
// subscriber census. Adds and removes are safe under arbitrary interleaving
// with broadcaster activity; removing a subscription that was never added
// (or was already removed) is a no-op.
type Registry struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[*Subscription]struct{}),
	}
}

// add registers a subscription.
func (r *Registry) add(s *Subscription) {
	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()
}

// remove unregisters a subscription. Safe to call with a subscription that
// is not registered.
func (r *Registry) remove(s *Subscription) {
	r.mu.Lock()
	delete(r.subs, s)
	r.mu.Unlock()
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// snapshot returns the current subscriptions as a slice.
//
// The slice is a copy; it is safe to iterate while other goroutines add or
// remove subscriptions. A subscription removed after the snapshot may still
// receive one final payload, which is harmless: nothing reads its slot.
func (r *Registry) snapshot() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]*Subscription, 0, len(r.subs))
	for s := range r.subs {
		subs = append(subs, s)
	}
	return subs
}
