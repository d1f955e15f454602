package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	done      bool
	record    Record
	claimedAt time.Time
}

// MemoryStore is a bounded in-process Store. Entries expire after ttl and
// the least recently used entry is evicted when size is reached.
type MemoryStore struct {
	mu         sync.Mutex
	cache      *expirable.LRU[string, memoryEntry]
	pendingTTL time.Duration
	now        func() time.Time
}

// NewMemoryStore creates a MemoryStore holding at most size keys for ttl.
func NewMemoryStore(size int, ttl, pendingTTL time.Duration) *MemoryStore {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &MemoryStore{
		cache:      expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		pendingTTL: pendingTTL,
		now:        time.Now,
	}
}

// Begin implements Store.
func (s *MemoryStore) Begin(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cache.Get(key); ok {
		if e.done {
			rec := e.record
			return &rec, nil
		}
		if s.now().Sub(e.claimedAt) < s.pendingTTL {
			return nil, ErrInProgress
		}
	}

	s.cache.Add(key, memoryEntry{claimedAt: s.now()})
	return nil, nil
}

// Finish implements Store.
func (s *MemoryStore) Finish(_ context.Context, key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Add(key, memoryEntry{done: true, record: rec})
	return nil
}

// Abort implements Store.
func (s *MemoryStore) Abort(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cache.Peek(key); ok && !e.done {
		s.cache.Remove(key)
	}
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
