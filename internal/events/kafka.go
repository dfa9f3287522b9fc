package events

import (
	"context"
	"fmt"

	"docket/pkg/kafka"
	"docket/pkg/middleware"
)

// Producer is satisfied by *kafka.Producer.
type Producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer Producer
	source   string
}

func NewKafkaPublisher(producer Producer, source string) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	builder := kafka.NewMessage().
		WithKey(evt.Key).
		WithEventType(evt.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithValue(evt.Payload)
	if !evt.OccurredAt.IsZero() {
		builder = builder.WithTimestamp(evt.OccurredAt)
	}

	msg, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", evt.Type, err)
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", evt.Type, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
