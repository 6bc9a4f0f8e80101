package event

import (
	"context"

	"github.com/moa/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// DurablePublisher implements shared.EventPublisher by writing events to the
// outbox table instead of dispatching them in-process. The outbox processor
// picks them up and relays them to the event bus, so delivery survives
// crashes between the service call and the handler run.
type DurablePublisher struct {
	db    *gorm.DB
	saver shared.OutboxEventSaver
}

// NewDurablePublisher creates a publisher that persists events through the
// given outbox saver on the given database handle.
func NewDurablePublisher(db *gorm.DB, saver shared.OutboxEventSaver) *DurablePublisher {
	return &DurablePublisher{
		db:    db,
		saver: saver,
	}
}

// Publish stores the events as outbox entries in a single transaction.
// Events published inside a repository transaction should go through
// OutboxPublisher.PublishWithTx instead so they commit with the aggregate.
func (p *DurablePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return p.saver.SaveEvents(ctx, tx, events...)
	})
}

var _ shared.EventPublisher = (*DurablePublisher)(nil)
