package query

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. Expired entries are dropped lazily
// on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Get retrieves an entry by key.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	name := key.String()

	s.mu.RLock()
	entry, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if entry.IsExpired() {
		s.mu.Lock()
		if current, ok := s.entries[name]; ok && current.IsExpired() {
			delete(s.entries, name)
		}
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Set stores an entry. Entries that are already expired are not stored.
func (s *MemoryStore) Set(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.TTL() <= 0 {
		return nil
	}

	stored := *entry
	stored.Data = append([]byte(nil), entry.Data...)

	s.mu.Lock()
	s.entries[key.String()] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.entries, key.String())
	s.mu.Unlock()
	return nil
}

// DeletePrefix removes every entry under prefix.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix Key) (int, error) {
	encoded := prefix.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for name := range s.entries {
		if matchPrefix(name, encoded) {
			delete(s.entries, name)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
