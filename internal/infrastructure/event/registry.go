package event

import (
	"slices"
	"sync"

	"github.com/moa/backend/internal/domain/shared"
)

// HandlerRegistry is the subscription table behind the bus: handlers keyed
// by event type, plus wildcard subscribers that observe everything.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byType: make(map[string][]shared.EventHandler)}
}

// Register subscribes handler to the listed event types, or to every event
// when none are listed.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, handler)
		return
	}
	for _, eventType := range eventTypes {
		r.byType[eventType] = append(r.byType[eventType], handler)
	}
}

// Unregister drops handler from every subscription it appears in.
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := func(h shared.EventHandler) bool { return h == handler }

	r.wildcard = slices.DeleteFunc(r.wildcard, drop)
	for eventType, handlers := range r.byType {
		kept := slices.DeleteFunc(handlers, drop)
		if len(kept) == 0 {
			delete(r.byType, eventType)
			continue
		}
		r.byType[eventType] = kept
	}
}

// HandlersFor returns the handlers subscribed to eventType, wildcard
// subscribers last.
func (r *HandlerRegistry) HandlersFor(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribed := r.byType[eventType]
	combined := make([]shared.EventHandler, 0, len(subscribed)+len(r.wildcard))
	combined = append(combined, subscribed...)
	return append(combined, r.wildcard...)
}

// AllHandlers returns each registered handler once, wildcard first.
func (r *HandlerRegistry) AllHandlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var unique []shared.EventHandler
	seen := make(map[shared.EventHandler]struct{})
	collect := func(handlers []shared.EventHandler) {
		for _, h := range handlers {
			if _, dup := seen[h]; !dup {
				seen[h] = struct{}{}
				unique = append(unique, h)
			}
		}
	}

	collect(r.wildcard)
	for _, handlers := range r.byType {
		collect(handlers)
	}
	return unique
}
