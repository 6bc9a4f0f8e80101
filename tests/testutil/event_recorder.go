// Package testutil holds shared test doubles for the MOA backend test
// suites. Everything here is exercised by the integration tests; unit
// tests keep their mocks in-package.
package testutil

import (
	"context"
	"sync"

	"github.com/moa/backend/internal/domain/shared"
)

// EventRecorder is a shared.EventHandler that remembers every event
// delivered to it. Integration tests subscribe one to a real event bus
// to assert which domain events a use case published.
type EventRecorder struct {
	mu       sync.Mutex
	types    []string
	received []shared.DomainEvent
	failWith error
}

// NewEventRecorder returns a recorder subscribed to the given event
// types. With no types it receives every event on the bus.
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{types: eventTypes}
}

func (r *EventRecorder) EventTypes() []string {
	return r.types
}

func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, event)
	return r.failWith
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.received))
	copy(out, r.received)
	return out
}

// TypeSequence returns the event types in delivery order, which is what
// flow tests usually assert against.
func (r *EventRecorder) TypeSequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := make([]string, len(r.received))
	for i, e := range r.received {
		seq[i] = e.EventType()
	}
	return seq
}

// CountOf returns how many events of the given type were recorded.
func (r *EventRecorder) CountOf(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.received {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

// LastOf returns the most recent event of the given type, or nil.
func (r *EventRecorder) LastOf(eventType string) shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.received) - 1; i >= 0; i-- {
		if r.received[i].EventType() == eventType {
			return r.received[i]
		}
	}
	return nil
}

// Reset drops everything recorded so far.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = nil
}

// FailWith makes Handle return err, for tests covering handler failures.
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}
