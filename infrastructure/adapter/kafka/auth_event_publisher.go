package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AuthEventPublisher writes auth events keyed by member id, so events of a
// member stay ordered within a partition.
type AuthEventPublisher struct {
	writer messageWriter
	topic  string
	logger logger.Logger
}

func NewAuthEventPublisher(brokers []string, topic string, log logger.Logger) *AuthEventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	return newAuthEventPublisher(writer, topic, log)
}

func newAuthEventPublisher(writer messageWriter, topic string, log logger.Logger) *AuthEventPublisher {
	return &AuthEventPublisher{writer: writer, topic: topic, logger: log}
}

func (p *AuthEventPublisher) Publish(ctx context.Context, event entity.AuthEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode auth event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.MemberID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "Failed to publish auth event", err, map[string]interface{}{
			"topic":      p.topic,
			"event_type": string(event.Type),
		})
		return fmt.Errorf("failed to publish auth event: %w", err)
	}

	p.logger.Debug(ctx, "Auth event published", map[string]interface{}{
		"topic":      p.topic,
		"event_type": string(event.Type),
	})
	return nil
}

func (p *AuthEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, entity.AuthEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
