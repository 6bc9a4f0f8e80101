package event

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/moa/backend/internal/domain/shared"
)

// ErrBusNotRunning is returned by Publish outside the Start/Stop window.
// The outbox processor treats it like any delivery failure and leaves the
// entry pending for the next run.
var ErrBusNotRunning = errors.New("event bus is not running")

// InMemoryEventBus implements shared.EventBus with in-process pub/sub.
// Events delivered by the outbox processor fan out synchronously to all
// handlers registered for the event type.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger

	// mu gates Publish against the lifecycle: Stop takes the write lock,
	// so in-flight publishes drain before the bus reports stopped.
	mu      sync.RWMutex
	running bool
}

// NewInMemoryEventBus creates a bus; Publish refuses work until Start.
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers events to all subscribed handlers synchronously.
// A failing handler is logged and does not block the remaining handlers.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running {
		return ErrBusNotRunning
	}

	for _, event := range events {
		for _, handler := range b.registry.HandlersFor(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler, falling back to the handler's own declared
// types when none are given.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from every event type.
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start opens the bus for publishing.
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.running = true
	b.logger.Info("event bus started",
		zap.Int("handlers", len(b.registry.AllHandlers())))
	return nil
}

// Stop refuses further publishes once in-flight ones drain.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.running = false
	b.logger.Info("event bus stopped")
	return nil
}

// dispatch invokes one handler with panic recovery so a broken subscriber
// cannot take down the processor loop.
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
