package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/notification"
)

// LogNotifier writes notifications to the log. It stands in for Kafka in
// development and when kafka.enabled is false.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n
func (l *LogNotifier) Notify(_ context.Context, n notification.Notification) error {
	l.logger.Info("Notification",
		zap.String("kind", string(n.Kind)),
		zap.String("channel", string(n.Channel)),
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("subject", n.Subject),
		zap.String("entity_id", n.EntityID.String()),
	)
	return nil
}

var _ notification.Notifier = (*LogNotifier)(nil)
