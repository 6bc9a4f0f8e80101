package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moa/backend/internal/domain/shared"
)

type stubEvent struct {
	shared.BaseDomainEvent
}

func newStubEvent(eventType string) *stubEvent {
	return &stubEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Stub", uuid.New()),
	}
}

func TestEventRecorder_RecordsInOrder(t *testing.T) {
	rec := NewEventRecorder()
	ctx := context.Background()

	require.NoError(t, rec.Handle(ctx, newStubEvent("OrderCreated")))
	require.NoError(t, rec.Handle(ctx, newStubEvent("OrderPaid")))
	require.NoError(t, rec.Handle(ctx, newStubEvent("OrderPaid")))

	assert.Equal(t, []string{"OrderCreated", "OrderPaid", "OrderPaid"}, rec.TypeSequence())
	assert.Equal(t, 2, rec.CountOf("OrderPaid"))
	assert.Equal(t, 0, rec.CountOf("OrderCancelled"))
	assert.Len(t, rec.Events(), 3)
}

func TestEventRecorder_LastOf(t *testing.T) {
	rec := NewEventRecorder()
	ctx := context.Background()

	first := newStubEvent("UserRegistered")
	second := newStubEvent("UserRegistered")
	require.NoError(t, rec.Handle(ctx, first))
	require.NoError(t, rec.Handle(ctx, second))

	got := rec.LastOf("UserRegistered")
	require.NotNil(t, got)
	assert.Equal(t, second.EventID(), got.EventID())
	assert.Nil(t, rec.LastOf("UserLocked"))
}

func TestEventRecorder_SubscribedTypes(t *testing.T) {
	assert.Empty(t, NewEventRecorder().EventTypes())
	assert.Equal(t, []string{"OrderPaid", "OrderShipped"},
		NewEventRecorder("OrderPaid", "OrderShipped").EventTypes())
}

func TestEventRecorder_FailWithAndReset(t *testing.T) {
	rec := NewEventRecorder()
	ctx := context.Background()

	boom := errors.New("handler down")
	rec.FailWith(boom)
	err := rec.Handle(ctx, newStubEvent("OrderCreated"))
	assert.ErrorIs(t, err, boom)
	// Failed deliveries are still recorded
	assert.Equal(t, 1, rec.CountOf("OrderCreated"))

	rec.Reset()
	assert.Empty(t, rec.Events())
}
