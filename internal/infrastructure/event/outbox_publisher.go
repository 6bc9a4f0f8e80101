package event

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/moa/backend/internal/domain/shared"
)

// OutboxPublisher writes domain events into the outbox table inside the
// caller's transaction, so aggregate state and events commit together.
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// OutboxPublisherOption configures an OutboxPublisher
type OutboxPublisherOption func(*OutboxPublisher)

// WithMaxRetries overrides the per-entry retry budget for new outbox entries
func WithMaxRetries(n int) OutboxPublisherOption {
	return func(p *OutboxPublisher) {
		if n > 0 {
			p.maxRetries = n
		}
	}
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer, opts ...OutboxPublisherOption) *OutboxPublisher {
	p := &OutboxPublisher{
		serializer: serializer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishWithTx serializes events and stores them as outbox entries in tx
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries, err := p.buildEntries(events)
	if err != nil {
		return err
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// buildEntries serializes each event into a pending outbox entry. Event
// types missing from the serializer registry are refused up front: an
// entry that can never be deserialized would only churn through the
// retry loop into the dead letter queue.
func (p *OutboxPublisher) buildEntries(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		if !p.serializer.IsRegistered(event.EventType()) {
			return nil, fmt.Errorf("event type %s is not registered", event.EventType())
		}

		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return nil, err
		}

		entry := shared.NewOutboxEntry(event, payload)
		if p.maxRetries > 0 {
			entry.MaxRetries = p.maxRetries
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveEvents implements shared.OutboxEventSaver for callers that only
// hold the transaction as an opaque provider
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}

	return p.PublishWithTx(ctx, tx, events...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
