package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/moa/backend/internal/domain/shared"
)

const idempotencyShardCount = 16

// idempotencyShard holds one slice of the key space behind its own lock so
// concurrent event handlers do not serialize on a single mutex.
type idempotencyShard struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore with a sharded
// in-process map plus a janitor goroutine that evicts expired entries.
// Suitable for single-instance deployments and tests; state is not shared
// across processes.
type InMemoryIdempotencyStore struct {
	shards    [idempotencyShardCount]*idempotencyShard
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store and
// starts its cleanup goroutine
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		stopChan: make(chan struct{}),
	}
	for i := range store.shards {
		store.shards[i] = &idempotencyShard{entries: make(map[string]time.Time)}
	}

	store.wg.Add(1)
	go store.janitor()

	return store
}

func (s *InMemoryIdempotencyStore) shardFor(eventID string) *idempotencyShard {
	h := fnv.New32a()
	h.Write([]byte(eventID))
	return s.shards[h.Sum32()%idempotencyShardCount]
}

// MarkProcessed marks an event as processed with a TTL.
// Returns true if the event was newly marked, false if it was already processed.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	shard := s.shardFor(eventID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if expiresAt, exists := shard.entries[eventID]; exists && time.Now().Before(expiresAt) {
		return false, nil
	}

	shard.entries[eventID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed checks if an event has already been processed. Expired entries
// are treated as not processed.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	shard := s.shardFor(eventID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	expiresAt, exists := shard.entries[eventID]
	if !exists || time.Now().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the janitor goroutine and releases resources.
// Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// janitor periodically removes expired entries
func (s *InMemoryIdempotencyStore) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup sweeps every shard and drops expired entries
func (s *InMemoryIdempotencyStore) cleanup() {
	now := time.Now()
	for _, shard := range s.shards {
		shard.mu.Lock()
		for eventID, expiresAt := range shard.entries {
			if now.After(expiresAt) {
				delete(shard.entries, eventID)
			}
		}
		shard.mu.Unlock()
	}
}

// Size returns the number of entries across all shards (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
