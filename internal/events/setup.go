package events

import (
	"fmt"

	"docket/pkg/config"
	"docket/pkg/kafka"
	kafka_config "docket/pkg/kafka/config"
	kafka_middleware "docket/pkg/kafka/middleware"
)

// FromConfig builds the publisher selected by EVENTS_ENABLED. The returned
// metrics are nil when events are disabled.
func FromConfig(cfg *config.Config, source string) (Publisher, *kafka_middleware.Metrics, error) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled")
		return Noop(), nil, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid kafka configuration: %w", err)
	}

	log := cfg.Log.Component("events")
	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, log.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	metrics := &kafka_middleware.Metrics{}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log.Logger))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	}

	cfg.Log.Info("Event publishing enabled",
		"topic", cfg.EventsTopic,
		"brokers", kafkaCfg.Brokers,
		"dlq_topic", kafkaCfg.DLQTopic,
	)
	return NewKafkaPublisher(producer, source), metrics, nil
}
