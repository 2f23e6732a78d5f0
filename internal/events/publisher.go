package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StatusEvent is emitted whenever a transaction or transfer changes status.
type StatusEvent struct {
	Entity    string    `json:"entity"` // "transaction" or "transfer"
	EntityID  string    `json:"entity_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes status events to Kafka. A nil *Publisher is valid and
// drops all events, so callers never need to check whether eventing is
// configured.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher returns nil when no brokers are configured.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish emits a status event keyed by entity ID. Publishing failures are
// logged and swallowed: eventing must never block or fail a payment write.
func (p *Publisher) Publish(ctx context.Context, ev StatusEvent) {
	if p == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to encode status event", zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.Entity + ":" + ev.EntityID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish status event",
			zap.String("entity", ev.Entity),
			zap.String("entity_id", ev.EntityID),
			zap.Error(err))
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
