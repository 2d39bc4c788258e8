package broadcast

import (
	"sync"
	"testing"
)

func TestRegistry_AddRemoveCount(t *testing.T) {
	r := NewRegistry()

	if got := r.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}

	s1 := &Subscription{}
	s2 := &Subscription{}

	r.add(s1)
	r.add(s2)
	if got := r.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	r.remove(s1)
	if got := r.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	// removing an unknown or already-removed subscription is a no-op
	r.remove(s1)
	r.remove(&Subscription{})
	if got := r.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()

	s1 := &Subscription{}
	s2 := &Subscription{}
	r.add(s1)
	r.add(s2)

	snap := r.snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot() = %d entries, want 2", len(snap))
	}

	// mutating the registry does not affect an existing snapshot
	r.remove(s1)
	if len(snap) != 2 {
		t.Errorf("snapshot shrank after remove: %d entries", len(snap))
	}
}

// N concurrent joins followed by M concurrent leaves must leave exactly
// N - M entries.
func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	const joins = 100
	const leaves = 60

	subs := make([]*Subscription, joins)
	for i := range subs {
		subs[i] = &Subscription{}
	}

	var wg sync.WaitGroup
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			r.add(s)
		}(subs[i])
	}
	wg.Wait()

	for i := 0; i < leaves; i++ {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			r.remove(s)
		}(subs[i])
	}
	wg.Wait()

	if got := r.Count(); got != joins-leaves {
		t.Errorf("Count() = %d, want %d", got, joins-leaves)
	}
}
