package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	orderapp "github.com/moa/backend/internal/application/order"
)

// RedisCheckoutStore maps client Idempotency-Key headers to the order created
// for them so retried checkouts return the original order instead of placing
// a duplicate.
type RedisCheckoutStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCheckoutStore creates a checkout idempotency store backed by an
// existing Redis client
func NewRedisCheckoutStore(client *redis.Client) *RedisCheckoutStore {
	return &RedisCheckoutStore{
		client:    client,
		keyPrefix: "checkout:idempotency:",
	}
}

// Lookup returns the order ID previously stored under the key, if any
func (s *RedisCheckoutStore) Lookup(ctx context.Context, key string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to look up checkout idempotency key: %w", err)
	}

	orderID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt checkout idempotency entry for key %q: %w", key, err)
	}
	return orderID, true, nil
}

// Remember stores the order ID under the key with a TTL. The first write
// wins; a concurrent retry that lost the race keeps the original mapping.
func (s *RedisCheckoutStore) Remember(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, s.keyPrefix+key, orderID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout idempotency key: %w", err)
	}
	return nil
}

// InMemoryCheckoutStore is an in-process checkout idempotency store for
// single-instance deployments and tests. Entries are evicted lazily on
// lookup; there is no janitor.
type InMemoryCheckoutStore struct {
	mu      sync.RWMutex
	entries map[string]checkoutEntry
}

type checkoutEntry struct {
	orderID   uuid.UUID
	expiresAt time.Time
}

// NewInMemoryCheckoutStore creates an in-memory checkout idempotency store
func NewInMemoryCheckoutStore() *InMemoryCheckoutStore {
	return &InMemoryCheckoutStore{
		entries: make(map[string]checkoutEntry),
	}
}

// Lookup returns the order ID previously stored under the key, if any
func (s *InMemoryCheckoutStore) Lookup(ctx context.Context, key string) (uuid.UUID, bool, error) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return uuid.Nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return uuid.Nil, false, nil
	}
	return entry.orderID, true, nil
}

// Remember stores the order ID under the key with a TTL. The first live
// entry wins.
func (s *InMemoryCheckoutStore) Remember(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.entries[key]; exists && time.Now().Before(entry.expiresAt) {
		return nil
	}
	s.entries[key] = checkoutEntry{
		orderID:   orderID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Ensure both stores satisfy the order service contract
var (
	_ orderapp.IdempotencyStore = (*RedisCheckoutStore)(nil)
	_ orderapp.IdempotencyStore = (*InMemoryCheckoutStore)(nil)
)
