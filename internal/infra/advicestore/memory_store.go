package advicestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

type memoryEntry struct {
	payload   washadvisor.CacheEntry
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the advisory store for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements washadvisor.Store.
func (s *MemoryStore) Get(_ context.Context, key string) (washadvisor.CacheEntry, bool, error) {
	s.mu.RLock()
	record, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return washadvisor.CacheEntry{}, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return washadvisor.CacheEntry{}, false, nil
	}
	return record.payload, true, nil
}

// Set caches the entry with optional TTL.
func (s *MemoryStore) Set(_ context.Context, key string, entry washadvisor.CacheEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.entries[key] = memoryEntry{payload: entry, expiresAt: exp}
	return nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ washadvisor.Store = (*MemoryStore)(nil)
