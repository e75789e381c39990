package notification

import (
	"time"

	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/printmarket/backend/internal/domain/notification"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/event"
)

// Subscribers are the collaborators of the payment side-effect handlers.
// Nil collaborators disable their handler.
type Subscribers struct {
	ActivityRepo   activity.Repository
	Invalidator    CacheInvalidator
	Notifier       notification.Notifier
	DedupeStore    shared.IdempotencyStore
	EmailDedupeTTL time.Duration
	Logger         *zap.Logger
}

// Register subscribes every enabled side-effect handler to bus and returns them
func Register(bus shared.EventSubscriber, s Subscribers) []shared.EventHandler {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var handlers []shared.EventHandler
	if s.ActivityRepo != nil {
		handlers = append(handlers, NewActivityLogHandler(s.ActivityRepo, log))
	}
	if s.Invalidator != nil {
		handlers = append(handlers, NewCacheInvalidationHandler(s.Invalidator, log))
	}
	if s.Notifier != nil {
		handlers = append(handlers, NewNotificationHandler(s.Notifier, notification.ChannelInApp, log))

		var email shared.EventHandler = NewNotificationHandler(s.Notifier, notification.ChannelEmail, log)
		if s.DedupeStore != nil {
			email = event.NewIdempotentHandler(email, s.DedupeStore, EmailDedupeKey, s.EmailDedupeTTL, log)
		}
		handlers = append(handlers, email)
	}

	for _, h := range handlers {
		bus.Subscribe(h)
	}
	return handlers
}
