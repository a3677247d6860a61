package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	urls    map[string]struct{}
	expires time.Time
}

// MemoryStore is a process-local Store. Expired sessions are dropped lazily.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memoryEntry
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]*memoryEntry)}
}

// Seen implements Store. URLs are returned sorted.
func (s *MemoryStore) Seen(_ context.Context, id string) ([]string, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(id)
	if entry == nil {
		return nil, nil
	}
	out := make([]string, 0, len(entry.urls))
	for u := range entry.urls {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

// Remember implements Store.
func (s *MemoryStore) Remember(_ context.Context, id string, urls ...string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(urls) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(id)
	if entry == nil {
		entry = &memoryEntry{urls: make(map[string]struct{}, len(urls))}
		s.sessions[id] = entry
	}
	for _, u := range urls {
		if u != "" {
			entry.urls[u] = struct{}{}
		}
	}
	entry.expires = s.now().Add(s.ttl)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// live returns the unexpired entry for id. Callers hold mu.
func (s *MemoryStore) live(id string) *memoryEntry {
	entry, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.sessions, id)
		return nil
	}
	return entry
}
