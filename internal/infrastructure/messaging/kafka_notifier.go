package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/notification"
	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// NewSyncProducer creates a Kafka producer that waits for all in-sync replicas
func NewSyncProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	sc.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaNotifier publishes notifications as JSON keyed by recipient, so one
// recipient's notifications stay ordered within a partition
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaNotifier creates a notifier on an existing producer
func NewKafkaNotifier(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaNotifier{producer: producer, topic: topic, logger: logger}
}

// Notify publishes n and injects the trace context into the message headers
func (k *KafkaNotifier) Notify(ctx context.Context, n notification.Notification) error {
	ctx, span := telemetry.StartSpan(ctx, "kafka.publish_notification",
		telemetry.WithAttribute("messaging.destination", k.topic),
		telemetry.WithAttribute("notification.kind", string(n.Kind)),
	)
	defer span.End()

	payload, err := json.Marshal(n)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	carrier := make(headerCarrier, 0, 4)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	carrier.Set("notification-kind", string(n.Kind))
	carrier.Set("notification-channel", string(n.Channel))

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(n.RecipientID.String()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   []sarama.RecordHeader(carrier),
		Timestamp: time.Now(),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	telemetry.SetOK(span)
	k.logger.Info("Notification published",
		zap.String("trace_id", telemetry.GetTraceID(ctx)),
		zap.String("topic", k.topic),
		zap.String("kind", string(n.Kind)),
		zap.String("recipient_id", n.RecipientID.String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close closes the producer
func (k *KafkaNotifier) Close() error {
	return k.producer.Close()
}

// headerCarrier adapts Kafka record headers to propagation.TextMapCarrier
type headerCarrier []sarama.RecordHeader

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}

var _ notification.Notifier = (*KafkaNotifier)(nil)
