package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"docket/pkg/kafka"
)

// Metrics holds producer counters
type Metrics struct {
	MessagesPublished       atomic.Int64
	MessagesPublishedFailed atomic.Int64
	PublishDurationTotal    atomic.Int64 // Nanoseconds
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Published          int64 `json:"published"`
	Failed             int64 `json:"failed"`
	AvgPublishDuration int64 `json:"avg_publish_duration_ms"`
}

// Snapshot reads the counters
func (m *Metrics) Snapshot() Snapshot {
	published := m.MessagesPublished.Load()
	s := Snapshot{
		Published: published,
		Failed:    m.MessagesPublishedFailed.Load(),
	}
	if published > 0 {
		s.AvgPublishDuration = time.Duration(m.PublishDurationTotal.Load() / published).Milliseconds()
	}
	return s
}

// MetricsProducerMiddleware counts publish outcomes into m
func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			m.MessagesPublishedFailed.Add(1)
			return err
		}
		m.MessagesPublished.Add(1)
		m.PublishDurationTotal.Add(int64(time.Since(start)))
		return nil
	}
}
