// Package cache provides the process-wide TTL keyed response cache shared by
// every fetch path. Entries expire lazily: a stale read reports a miss and
// the subsequent refetch overwrites the entry in place.
package cache

import (
	"sync"
	"time"
)

// Store is the cache contract the provider clients and the reconciliation
// engine depend on. TTL is supplied per key by the caller, not cache-wide.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Clear()
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Memory is an in-memory Store safe for concurrent use. Concurrent sets on
// the same key are last-write-wins; entries are always fully formed before
// insertion so no merge semantics are needed.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value, or reports a miss when the key was never set
// or its TTL has elapsed. Stale entries are not evicted on read.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.storedAt) >= e.ttl {
		return nil, false
	}
	return e.value, true
}

// Set stores a value with its own TTL, overwriting any previous entry.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, storedAt: m.now(), ttl: ttl}
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
}

// Len reports the number of stored entries, stale ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
