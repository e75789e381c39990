package event

import (
	"slices"
	"sync"

	"github.com/printmarket/backend/internal/domain/shared"
)

// subscription is one handler and the event types it receives. An empty
// type set receives every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order so that handlers
// of one event run in a predictable sequence on the synchronous bus
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes. Registering the same handler
// again widens its existing subscription.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.subs, func(s subscription) bool { return s.handler == handler })
	if idx < 0 {
		r.subs = append(r.subs, subscription{handler: handler, types: make(map[string]struct{})})
		idx = len(r.subs) - 1
	}
	if len(eventTypes) == 0 {
		clear(r.subs[idx].types)
		return
	}
	for _, t := range eventTypes {
		r.subs[idx].types[t] = struct{}{}
	}
}

// Unregister removes handler
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

// GetHandlers returns the handlers subscribed to eventType
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.matches(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

// Len returns the number of registered handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
