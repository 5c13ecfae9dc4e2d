// Package memstore provides a lock-protected, time-windowed in-memory keyed
// store with two read/write policies: sliding-window rate limiting and TTL
// caching. State is process-local; multi-instance deployments must
// externalize it (deployment constraint, not handled here).
package memstore

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Store owns its maps exclusively; all access goes through its methods and
// serializes on one store-wide mutex. The single lock is a deliberate
// simplicity-over-throughput tradeoff: the critical sections perform no I/O
// and stay short.
type Store struct {
	mu      sync.Mutex
	calls   map[string][]time.Time
	entries map[string]cacheEntry

	// bypass makes Allow succeed unconditionally, without reading or
	// mutating state. Configuration-gated; meant for upstream integration
	// tests that must not be throttled.
	bypass bool

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRateLimitBypass disables the rate-limit policy when on is true.
func WithRateLimitBypass(on bool) Option {
	return func(s *Store) { s.bypass = on }
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		calls:   make(map[string][]time.Time),
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records a call under key if fewer than maxCalls happened within the
// trailing period, and reports whether the call is permitted. Denials do
// not mutate state. After a successful Allow the pruned history never
// exceeds maxCalls entries.
func (s *Store) Allow(key string, maxCalls int, period time.Duration) bool {
	if s.bypass {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-period)

	kept := s.calls[key][:0]
	for _, ts := range s.calls[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= maxCalls {
		s.calls[key] = kept
		return false
	}

	s.calls[key] = append(kept, now)
	return true
}

// Reset clears the call history for one key, immediately re-permitting it.
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calls, key)
}

// ResetAll clears the call history for every key.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string][]time.Time)
}

// Get returns the cached value for key. A value past its expiry reads as
// absent and is evicted lazily.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set caches value under key until now+ttl.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cacheEntry{value: value, expiresAt: s.now().Add(ttl)}
}

// Clear empties the cache.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]cacheEntry)
}
