package event

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/moa/backend/internal/domain/shared"
)

// IdempotencyMetrics tracks duplicate-delivery statistics.
type IdempotencyMetrics struct {
	// EventsProcessed counts events processed for the first time
	EventsProcessed atomic.Int64

	// EventsDuplicate counts deliveries skipped as duplicates
	EventsDuplicate atomic.Int64

	// EventsFailed counts events whose handler returned an error
	EventsFailed atomic.Int64
}

// Stats returns a snapshot of the current metrics
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: m.EventsProcessed.Load(),
		EventsDuplicate: m.EventsDuplicate.Load(),
		EventsFailed:    m.EventsFailed.Load(),
	}
}

// GetDeliveryStats satisfies the telemetry provider contract, so the
// counters land on the metrics dashboards alongside the business gauges.
func (m *IdempotencyMetrics) GetDeliveryStats() (processed, duplicates, failures int64) {
	return m.EventsProcessed.Load(), m.EventsDuplicate.Load(), m.EventsFailed.Load()
}

// IdempotencyStats is a snapshot of idempotency metrics
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// GlobalIdempotencyMetrics aggregates statistics across all idempotent
// handlers in the process. Pass it via WithIdempotencyMetrics when a
// shared view is wanted; inject a dedicated instance otherwise.
var GlobalIdempotencyMetrics = &IdempotencyMetrics{}

// IdempotentHandler wraps an EventHandler with duplicate detection.
// The outbox delivers at-least-once, so handlers with side effects are
// wrapped to make redelivery safe.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithIdempotencyMetrics sets the metrics collector
func WithIdempotencyMetrics(metrics *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.metrics = metrics
	}
}

// NewIdempotentHandler wraps a handler with duplicate detection using the
// default 24h TTL unless overridden by options.
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its ID was already seen
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}
	if h.alreadySeen(ctx, event) {
		return nil
	}
	return h.process(ctx, event)
}

// alreadySeen marks the event as processed and reports whether it had been
// seen before. A broken store reports unseen: risking a duplicate beats
// dropping the event.
func (h *IdempotentHandler) alreadySeen(ctx context.Context, event shared.DomainEvent) bool {
	isNew, err := h.store.MarkProcessed(ctx, event.EventID().String(), h.config.TTL)
	if err != nil {
		h.logger.Warn("failed to check idempotency, processing anyway",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return false
	}
	if isNew {
		return false
	}

	h.metrics.EventsDuplicate.Add(1)
	h.logger.Debug("duplicate event detected, skipping",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	)
	return true
}

func (h *IdempotentHandler) process(ctx context.Context, event shared.DomainEvent) error {
	if err := h.handler.Handle(ctx, event); err != nil {
		h.metrics.EventsFailed.Add(1)
		h.logger.Error("event handler failed",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		// The idempotency key stays set on failure. The TTL acts as the
		// retry cooldown rather than allowing an immediate redelivery.
		return err
	}

	h.metrics.EventsProcessed.Add(1)
	h.logger.Debug("event processed successfully",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

// Metrics returns the metrics collector for this handler.
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

// Unwrap returns the underlying handler.
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.handler
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
