// Package event emits domain events to collaborators. Delivery is
// fire-and-forget with at-most-once semantics: the core operation never
// blocks on, or fails because of, listener delivery.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"visitation-service/internal/config"
)

// Event names consumed by out-of-process collaborators.
const (
	TypeOfficerAssigned = "officer.assigned"
)

// OfficerAssigned is emitted after leave-based reassignment so the
// notification collaborator can inform the new officer.
type OfficerAssigned struct {
	OfficerID uuid.UUID   `json:"officer_id"`
	VisitIDs  []uuid.UUID `json:"visit_ids"`
	Reason    string      `json:"reason"`
}

// Publisher emits domain events.
type Publisher interface {
	PublishOfficerAssigned(ctx context.Context, event OfficerAssigned)
	Close() error
}

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// KafkaPublisher implements Publisher over an async Kafka writer. Failed
// writes are logged and dropped.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the officer events topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	log := logger.Named("event")

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topics.OfficerEvents,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireNone,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("Event delivery failed, dropping",
					zap.Int("messages", len(messages)),
					zap.Error(err))
			}
		},
	}

	return &KafkaPublisher{writer: writer, logger: log}
}

// PublishOfficerAssigned emits an officer.assigned event. Errors are logged,
// never returned: the reassignment has already committed and must not be
// unwound for a lost notification.
func (p *KafkaPublisher) PublishOfficerAssigned(ctx context.Context, event OfficerAssigned) {
	p.publish(ctx, TypeOfficerAssigned, event.OfficerID.String(), event)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, payload interface{}) {
	value, err := json.Marshal(envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		p.logger.Warn("Failed to enqueue event",
			zap.String("type", eventType),
			zap.Error(err))
	}
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards all events. Used in tests and when eventing is
// disabled.
type NoopPublisher struct{}

// PublishOfficerAssigned discards the event.
func (NoopPublisher) PublishOfficerAssigned(context.Context, OfficerAssigned) {}

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }
