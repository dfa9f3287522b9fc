package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddsServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf, Service: "meetings"})

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept", "lawyer_id", "lawyer-1")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "meetings", entry[SERVICE])
	assert.Equal(t, "lawyer-1", entry["lawyer_id"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).Component("lock")
	log.Info("acquired")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "lock", entry[COMPONENT])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing to see") })
}
