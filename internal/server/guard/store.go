package guard

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/users/internal/timex"
)

// Counter is the failure bookkeeping for one (identifier, source) pair.
// Pending holds the start times of attempts that are still being verified.
type Counter struct {
	Failures    []time.Time
	Pending     []time.Time
	LockedUntil time.Time
}

func (c Counter) clone() Counter {
	c.Failures = append([]time.Time(nil), c.Failures...)
	c.Pending = append([]time.Time(nil), c.Pending...)
	return c
}

// Store is a keyed store with per-entry expiry. Update must apply fn
// atomically with respect to other calls for the same key; every guard
// decision is made inside fn.
type Store interface {
	Update(ctx context.Context, key string, ttl time.Duration, fn func(c *Counter)) (Counter, error)
}

type memoryEntry struct {
	counter Counter
	expires time.Time
}

// MemoryStore is an in-process Store. Expired entries are invisible to readers
// and are reclaimed by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	clock   timex.Clock
	entries map[string]*memoryEntry
}

func NewMemoryStore(clock timex.Clock) *MemoryStore {
	return &MemoryStore{clock: clock, entries: map[string]*memoryEntry{}}
}

// Get returns a copy of the live counter for key.
func (s *MemoryStore) Get(_ context.Context, key string) (Counter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.clock.Now().Before(e.expires) {
		return Counter{}, false, nil
	}
	return e.counter.clone(), true, nil
}

func (s *MemoryStore) Update(_ context.Context, key string, ttl time.Duration, fn func(c *Counter)) (Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expires) {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	fn(&e.counter)
	e.expires = now.Add(ttl)
	return e.counter.clone(), nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var n int64
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
