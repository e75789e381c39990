package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/shared"
)

// FailureHook observes handler errors and panics
type FailureHook func(handlerName string, event shared.DomainEvent, err error)

// Option configures an InMemoryEventBus
type Option func(*InMemoryEventBus)

// WithAsync dispatches every handler on its own goroutine with a context
// detached from the publisher's cancellation. Stop waits for them.
func WithAsync(async bool) Option {
	return func(b *InMemoryEventBus) {
		b.async = async
	}
}

// WithFailureHook registers a callback for failed handlers
func WithFailureHook(hook FailureHook) Option {
	return func(b *InMemoryEventBus) {
		b.onFailure = hook
	}
}

// InMemoryEventBus implements EventBus with in-process pub/sub. Handler
// failures are logged and never reach the publisher.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	async     bool
	onFailure FailureHook

	// mu guards running; wg.Add only happens under its read lock
	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...Option) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.running = true
	return b
}

// Publish dispatches events to their handlers. After Stop, events are
// dropped with a warning.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		handlers := b.registry.GetHandlers(event.EventType())
		if !b.reserve(len(handlers)) {
			b.logger.Warn("event bus stopped, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
			)
			continue
		}
		for _, handler := range handlers {
			if b.async {
				go func(h shared.EventHandler, e shared.DomainEvent) {
					defer b.wg.Done()
					b.dispatch(context.WithoutCancel(ctx), h, e)
				}(handler, event)
				continue
			}
			b.dispatch(ctx, handler, event)
		}
	}
	return nil
}

// reserve reports whether the bus accepts events. On the async bus it also
// counts n handlers as in flight for Stop.
func (b *InMemoryEventBus) reserve(n int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return false
	}
	if b.async {
		b.wg.Add(n)
	}
	return true
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.String("handler", HandlerName(handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start marks the bus as accepting events
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	b.logger.Info("event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop refuses new events and waits for in-flight handlers or ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out with handlers in flight")
		return ctx.Err()
	}
}

// dispatch runs one handler, converting panics into failures
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	name := HandlerName(handler)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		return handler.Handle(ctx, event)
	}()
	if err == nil {
		return
	}

	b.logger.Error("handler failed to process event",
		zap.String("handler", name),
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Error(err),
	)
	if b.onFailure != nil {
		b.onFailure(name, event, err)
	}
}

// NamedHandler is implemented by handlers that report a stable name for
// logs and metrics
type NamedHandler interface {
	Name() string
}

// HandlerName returns the handler's name or its Go type
func HandlerName(h shared.EventHandler) string {
	if n, ok := h.(NamedHandler); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", h)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
