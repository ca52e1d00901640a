package cache

import "sync"

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Puts      uint64 `json:"puts"`
	Evictions uint64 `json:"evictions"`
}

// Store is a mutex-guarded map of string keys to cached values.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Store[V any] struct {
	name string

	mu      sync.RWMutex
	entries map[string]V

	hits      uint64
	misses    uint64
	puts      uint64
	evictions uint64
}

// NewStore creates an empty store. The name identifies the store in
// stats output and metrics.
func NewStore[V any](name string) *Store[V] {
	return &Store[V]{
		name:    name,
		entries: make(map[string]V),
	}
}

// Name returns the store's identifying name.
func (s *Store[V]) Name() string {
	return s.name
}

// Get returns the cached value for key.
//
// Returns:
//   - V: The cached value, or the zero value on a miss
//   - bool: true on a hit
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries[key]
	if ok {
		s.hits++
	} else {
		s.misses++
	}

	return value, ok
}

// Put stores value under key, replacing any existing entry. Empty keys
// are ignored: an entity without the indexed attribute has nothing to
// cache under.
func (s *Store[V]) Put(key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
	s.puts++
}

// Evict removes the entry for key.
//
// Returns:
//   - bool: true if an entry was present and removed
func (s *Store[V]) Evict(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}

	delete(s.entries, key)
	s.evictions++

	return true
}

// Clear removes every entry and returns how many were dropped.
func (s *Store[V]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.entries)
	s.entries = make(map[string]V)
	s.evictions += uint64(dropped)

	return dropped
}

// Len returns the number of cached entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Keys returns a snapshot of the cached keys in unspecified order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}

	return keys
}

// Stats returns a snapshot of the store's counters.
func (s *Store[V]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Name:      s.name,
		Size:      len(s.entries),
		Hits:      s.hits,
		Misses:    s.misses,
		Puts:      s.puts,
		Evictions: s.evictions,
	}
}
