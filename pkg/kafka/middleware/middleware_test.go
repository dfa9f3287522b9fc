package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/pkg/kafka"
)

func message(t *testing.T) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("lawyer-1").
		WithEventType("client_meeting.reserved").
		WithCorrelationID("req-7").
		WithValue(map[string]string{"meeting_id": "m1"}).
		Build()
	require.NoError(t, err)
	msg.Topic = "docket.events"
	return msg
}

func TestMetricsProducerMiddleware(t *testing.T) {
	m := &Metrics{}
	mw := MetricsProducerMiddleware(m)
	msg := message(t)

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("leader not available") }

	require.NoError(t, mw(context.Background(), msg, ok))
	require.NoError(t, mw(context.Background(), msg, ok))
	require.Error(t, mw(context.Background(), msg, fail))

	snapshot := m.Snapshot()
	assert.Equal(t, int64(2), snapshot.Published)
	assert.Equal(t, int64(1), snapshot.Failed)
	assert.GreaterOrEqual(t, snapshot.AvgPublishDuration, int64(0))
}

func TestLoggingProducerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mw := LoggingProducerMiddleware(log)
	msg := message(t)

	require.NoError(t, mw(context.Background(), msg, func(context.Context, kafka.Message) error { return nil }))
	assert.Contains(t, buf.String(), `"msg":"Published message"`)
	assert.Contains(t, buf.String(), `"correlation_id":"req-7"`)

	buf.Reset()
	err := mw(context.Background(), msg, func(context.Context, kafka.Message) error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.Contains(t, buf.String(), `"msg":"Failed to publish message"`)
	assert.Contains(t, buf.String(), `"event_type":"client_meeting.reserved"`)
}
