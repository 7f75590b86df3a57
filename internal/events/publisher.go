package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits clone outcome events keyed by target account
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	logger.Info("Kafka clone event publisher initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

// Publish writes one event; the key keeps events of the same target ordered
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.CloneEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode clone event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TargetID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish clone event: %w", err)
	}

	p.logger.Debug("Clone event published",
		zap.String("type", event.Type),
		zap.String("target_id", event.TargetID.String()),
		zap.String("topic", p.topic),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events when no broker is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.CloneEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
