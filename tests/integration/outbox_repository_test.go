package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/event"
)

// newOutboxEvent builds a minimal order event for outbox persistence tests
func newOutboxEvent(eventType string) shared.DomainEvent {
	evt := shared.NewBaseDomainEvent(eventType, "Order", uuid.New())
	return &evt
}

// TestOutboxRepository_Integration exercises the transactional outbox
// storage against a real database
func TestOutboxRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	repo := event.NewGormOutboxRepository(db.DB)
	ctx := context.Background()

	t.Run("Save and FindByID round trip", func(t *testing.T) {
		evt := newOutboxEvent("OrderCreated")
		payload := []byte(`{"order_number":"MOA-20260825-000001","status":"pending"}`)

		entry := shared.NewOutboxEntry(evt, payload)
		require.NoError(t, repo.Save(ctx, entry))

		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, evt.EventID(), found.EventID)
		assert.Equal(t, "OrderCreated", found.EventType)
		assert.Equal(t, evt.AggregateID(), found.AggregateID)
		assert.Equal(t, "Order", found.AggregateType)
		assert.JSONEq(t, string(payload), string(found.Payload))
		assert.Equal(t, shared.OutboxStatusPending, found.Status)
		assert.Equal(t, 0, found.RetryCount)
		assert.Equal(t, shared.DefaultMaxRetries, found.MaxRetries)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("MarkProcessing claims pending entries atomically", func(t *testing.T) {
		first := shared.NewOutboxEntry(newOutboxEvent("OrderPaid"), []byte(`{"payment_id":"pi_OUTBOX01"}`))
		second := shared.NewOutboxEntry(newOutboxEvent("OrderShipped"), []byte(`{"carrier":"Correios"}`))
		require.NoError(t, repo.Save(ctx, first, second))

		pending, err := repo.FindPending(ctx, 50)
		require.NoError(t, err)
		pendingIDs := make([]uuid.UUID, len(pending))
		for i, p := range pending {
			pendingIDs[i] = p.ID
		}
		assert.Contains(t, pendingIDs, first.ID)
		assert.Contains(t, pendingIDs, second.ID)

		// Unknown IDs are skipped, only claimable entries come back
		claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{first.ID, second.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, claimed, 2)
		for _, c := range claimed {
			assert.Equal(t, shared.OutboxStatusProcessing, c.Status)
		}

		// A second worker claiming the same batch gets nothing
		again, err := repo.MarkProcessing(ctx, []uuid.UUID{first.ID, second.ID})
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("failed entries surface through FindRetryable after the backoff", func(t *testing.T) {
		entry := shared.NewOutboxEntry(newOutboxEvent("OrderCancelled"), []byte(`{"reason":"estorno"}`))
		require.NoError(t, repo.Save(ctx, entry))

		require.NoError(t, entry.MarkProcessing())
		entry.MarkFailed("broker unavailable")
		require.NoError(t, repo.Update(ctx, entry))

		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusFailed, found.Status)
		assert.Equal(t, 1, found.RetryCount)
		assert.Equal(t, "broker unavailable", found.LastError)
		require.NotNil(t, found.NextRetryAt)

		// Not due yet: the first backoff pushes the retry into the future
		early, err := repo.FindRetryable(ctx, time.Now().Add(-time.Second), 10)
		require.NoError(t, err)
		for _, e := range early {
			assert.NotEqual(t, entry.ID, e.ID)
		}

		due, err := repo.FindRetryable(ctx, time.Now().Add(5*time.Second), 10)
		require.NoError(t, err)
		dueIDs := make([]uuid.UUID, len(due))
		for i, e := range due {
			dueIDs[i] = e.ID
		}
		assert.Contains(t, dueIDs, entry.ID)
	})

	t.Run("entries move to the dead letter queue after max retries", func(t *testing.T) {
		entry := shared.NewOutboxEntry(newOutboxEvent("OrderDelivered"), []byte(`{"order_number":"MOA-20260825-000002"}`))
		require.NoError(t, repo.Save(ctx, entry))

		for i := 0; i < shared.DefaultMaxRetries; i++ {
			entry.MarkFailed("webhook endpoint returned 500")
		}
		require.True(t, entry.IsDead())
		require.NoError(t, repo.Update(ctx, entry))

		dead, total, err := repo.FindDead(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, dead, 1)
		assert.Equal(t, entry.ID, dead[0].ID)
		assert.Equal(t, shared.DefaultMaxRetries, dead[0].RetryCount)
		assert.Equal(t, "webhook endpoint returned 500", dead[0].LastError)

		// An operator requeues the dead letter
		require.NoError(t, entry.ResetForRetry())
		require.NoError(t, repo.Update(ctx, entry))

		requeued, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusPending, requeued.Status)
		assert.Equal(t, 0, requeued.RetryCount)
		assert.Empty(t, requeued.LastError)
		assert.Nil(t, requeued.NextRetryAt)

		_, total, err = repo.FindDead(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("DeleteOlderThan prunes only sent entries past the horizon", func(t *testing.T) {
		old := shared.NewOutboxEntry(newOutboxEvent("OrderPaid"), []byte(`{"payment_id":"pi_OUTBOX02"}`))
		fresh := shared.NewOutboxEntry(newOutboxEvent("OrderPaid"), []byte(`{"payment_id":"pi_OUTBOX03"}`))
		require.NoError(t, repo.Save(ctx, old, fresh))

		old.MarkSent()
		require.NoError(t, repo.Update(ctx, old))
		fresh.MarkSent()
		require.NoError(t, repo.Update(ctx, fresh))

		require.NoError(t, db.DB.Exec(
			"UPDATE outbox_events SET processed_at = ? WHERE id = ?",
			time.Now().Add(-48*time.Hour), old.ID,
		).Error)

		deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = repo.FindByID(ctx, old.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		kept, err := repo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusSent, kept.Status)
	})

	t.Run("CountByStatus aggregates the queue", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, counts[shared.OutboxStatusPending], int64(2))
		assert.GreaterOrEqual(t, counts[shared.OutboxStatusProcessing], int64(2))
		assert.GreaterOrEqual(t, counts[shared.OutboxStatusFailed], int64(1))
		assert.GreaterOrEqual(t, counts[shared.OutboxStatusSent], int64(1))
	})
}
