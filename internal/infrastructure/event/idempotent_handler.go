package event

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/shared"
)

// KeyFunc derives the dedupe key of an event. Returning "" disables dedupe
// for that event.
type KeyFunc func(event shared.DomainEvent) string

// EventIDKey dedupes on the event ID
func EventIDKey(event shared.DomainEvent) string {
	return event.EventID().String()
}

// IdempotentHandler runs the wrapped handler at most once per key within ttl.
// A store failure does not block the handler: a duplicate side effect is
// preferred over a lost one.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	key     KeyFunc
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler with dedupe on key
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, key KeyFunc, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if key == nil {
		key = EventIDKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		key:     key,
		ttl:     ttl,
		logger:  logger,
	}
}

// Name reports the wrapped handler's name
func (h *IdempotentHandler) Name() string {
	return HandlerName(h.handler)
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the key and runs the handler if the claim is new
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.key(event)
	if key == "" {
		return h.handler.Handle(ctx, event)
	}

	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("dedupe store unavailable, handling anyway",
			zap.String("key", key),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.logger.Debug("duplicate side effect skipped",
			zap.String("key", key),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	// The claim is kept on failure so a redelivered event cannot retry in a
	// tight loop; it becomes retryable after ttl.
	return h.handler.Handle(ctx, event)
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
