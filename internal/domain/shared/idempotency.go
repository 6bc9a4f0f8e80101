package shared

import (
	"context"
	"time"
)

// IdempotencyStore records processed event IDs so handlers can skip
// duplicate deliveries. Keys expire after a TTL to bound storage.
type IdempotencyStore interface {
	// MarkProcessed atomically records an event ID with a TTL
	// Returns true when the ID was newly recorded, false when it
	// had already been seen
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an event ID has been recorded
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases store resources
	Close() error
}

// IdempotencyConfig controls duplicate-delivery protection for event handlers
type IdempotencyConfig struct {
	// TTL is how long a processed event ID is remembered
	// After expiry the same ID would be processed again
	TTL time.Duration

	// Enabled toggles the idempotency check entirely
	Enabled bool
}

// DefaultIdempotencyConfig returns the defaults: 24h retention, enabled
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
