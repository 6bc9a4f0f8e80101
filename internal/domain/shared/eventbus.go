package shared

import "context"

// EventHandler processes domain events delivered by the bus
type EventHandler interface {
	// Handle processes a single domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler wants to receive
	// An empty slice subscribes the handler to every event
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish delivers one or more domain events to subscribers
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages event handler registration
type EventSubscriber interface {
	// Subscribe registers a handler for the given event types
	// With no event types the handler receives all events
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a previously registered handler
	Unsubscribe(handler EventHandler)
}

// EventBus combines publishing and subscription with lifecycle control
type EventBus interface {
	EventPublisher
	EventSubscriber
	// Start begins dispatching events to handlers
	Start(ctx context.Context) error
	// Stop gracefully shuts the bus down
	Stop(ctx context.Context) error
}

// OutboxEventSaver persists domain events to the outbox table as part of
// the surrounding database transaction. Repositories call this after
// saving aggregate state so events and state commit atomically.
type OutboxEventSaver interface {
	// SaveEvents stores events inside the current transaction
	// The txProvider is expected to be a *gorm.DB transaction handle
	SaveEvents(ctx context.Context, txProvider interface{}, events ...DomainEvent) error
}
