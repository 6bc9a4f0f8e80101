package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/config"
)

// IdempotencyStoreFactory picks the idempotency store for the deployment.
// Redis is preferred so every instance shares deduplication state; the
// sharded in-process store covers single-instance setups and development.
type IdempotencyStoreFactory struct {
	redis    config.RedisConfig
	logger   *zap.Logger
	fallback bool
}

// IdempotencyStoreFactoryOption adjusts factory behavior.
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger routes the factory's store selection decisions to the logger.
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.logger = logger }
}

// WithInMemoryFallback controls the in-memory fallback used when Redis is
// unreachable. Enabled unless switched off; multi-instance deployments
// should switch it off, a process-local store lets duplicate deliveries
// through.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.fallback = allow }
}

// NewIdempotencyStoreFactory creates a factory for the given Redis settings.
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redis:    cfg,
		logger:   zap.NewNop(),
		fallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore connects to Redis, or hands out the in-memory store when
// Redis is unreachable and the fallback is enabled.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using redis idempotency store",
			zap.String("host", f.redis.Host),
			zap.Int("port", f.redis.Port))
		return store, nil
	}

	if !f.fallback {
		return nil, fmt.Errorf("redis required for idempotency: %w", err)
	}

	f.logger.Warn("redis unreachable, idempotency state will be process-local",
		zap.Error(err))
	return f.CreateInMemoryStore(), nil
}

// CreateRedisStore connects to Redis unconditionally.
func (f *IdempotencyStoreFactory) CreateRedisStore() (*RedisIdempotencyStore, error) {
	return NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redis.Host,
		Port:     f.redis.Port,
		Password: f.redis.Password,
		DB:       f.redis.DB,
	})
}

// CreateInMemoryStore hands out the process-local store. State is lost on
// restart and never shared between instances.
func (f *IdempotencyStoreFactory) CreateInMemoryStore() *InMemoryIdempotencyStore {
	return NewInMemoryIdempotencyStore()
}
