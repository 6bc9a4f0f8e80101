package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moa/backend/internal/domain/shared"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func newRunningBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := newRunningBus(t)

	handler := newTestHandler("OrderPaid")
	bus.Subscribe(handler, "OrderPaid")

	event := newTestEvent("OrderPaid")
	require.NoError(t, bus.Publish(context.Background(), event))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_PublishBatch(t *testing.T) {
	bus := newRunningBus(t)

	handler := newTestHandler("OrderPaid")
	bus.Subscribe(handler, "OrderPaid")

	err := bus.Publish(context.Background(),
		newTestEvent("OrderPaid"), newTestEvent("OrderPaid"))

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 2)
}

func TestInMemoryEventBus_FanOut(t *testing.T) {
	bus := newRunningBus(t)

	stock := newTestHandler("OrderPaid")
	mail := newTestHandler("OrderPaid")
	bus.Subscribe(stock, "OrderPaid")
	bus.Subscribe(mail, "OrderPaid")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Len(t, stock.getHandled(), 1)
	assert.Len(t, mail.getHandled(), 1)
}

func TestInMemoryEventBus_WildcardSubscriber(t *testing.T) {
	bus := newRunningBus(t)

	// No declared types, so Subscribe falls back to EventTypes() == nil,
	// making this a wildcard subscription.
	audit := newTestHandler()
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("AnyEventType")))

	assert.Len(t, audit.getHandled(), 1)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newRunningBus(t)

	failing := newTestHandler("OrderPaid")
	failing.setError(errors.New("handler error"))
	healthy := newTestHandler("OrderPaid")
	bus.Subscribe(failing, "OrderPaid")
	bus.Subscribe(healthy, "OrderPaid")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_NoMatchingHandlers(t *testing.T) {
	bus := newRunningBus(t)

	handler := newTestHandler("ProductPublished")
	bus.Subscribe(handler, "ProductPublished")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := newRunningBus(t)

	handler := newTestHandler("OrderPaid")
	bus.Subscribe(handler, "OrderPaid")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))
	require.Len(t, handler.getHandled(), 1)

	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_Lifecycle(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("OrderPaid")
	bus.Subscribe(handler, "OrderPaid")

	// Not started yet: events are refused, not silently dropped; the
	// outbox keeps them pending.
	err := bus.Publish(context.Background(), newTestEvent("OrderPaid"))
	require.ErrorIs(t, err, ErrBusNotRunning)
	assert.Empty(t, handler.getHandled())

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))
	assert.Len(t, handler.getHandled(), 1)

	require.NoError(t, bus.Stop(context.Background()))
	err = bus.Publish(context.Background(), newTestEvent("OrderPaid"))
	require.ErrorIs(t, err, ErrBusNotRunning)
	assert.Len(t, handler.getHandled(), 1)
}
