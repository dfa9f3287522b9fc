package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := FromEnv("test")
	cfg.MongoURI = DefaultMongoURI
	cfg.Port = DefaultPort
	return cfg
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvReservationLockBackend, LockBackendRedis)
	t.Setenv(EnvReservationLockWait, "750ms")
	t.Setenv(EnvMaxSlotRangeDays, "14")
	t.Setenv(EnvEventsEnabled, "true")
	t.Setenv(EnvRedisDB, "not-a-number")

	cfg := FromEnv("test")

	assert.Equal(t, LockBackendRedis, cfg.ReservationLockBackend)
	assert.Equal(t, 750*time.Millisecond, cfg.ReservationLockWait)
	assert.Equal(t, 14, cfg.MaxSlotRangeDays)
	assert.True(t, cfg.EventsEnabled)
	assert.Equal(t, DefaultRedisDB, cfg.RedisDB, "unparsable values fall back to defaults")
	assert.Equal(t, DefaultBookingLinkTTL, cfg.BookingLinkTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "unknown lock backend",
			mutate:  func(c *Config) { c.ReservationLockBackend = "etcd" },
			wantErr: "ReservationLockBackend",
		},
		{
			name:    "secret not base64",
			mutate:  func(c *Config) { c.BookingLinkSecret = "%%%" },
			wantErr: "base64",
		},
		{
			name:    "secret wrong length",
			mutate:  func(c *Config) { c.BookingLinkSecret = "c2hvcnQ=" },
			wantErr: "16, 24 or 32 bytes",
		},
		{
			name:    "zero slot range",
			mutate:  func(c *Config) { c.MaxSlotRangeDays = 0 },
			wantErr: "MaxSlotRangeDays",
		},
		{
			name:    "bad mongo uri",
			mutate:  func(c *Config) { c.MongoURI = "postgres://x" },
			wantErr: "MongoURI",
		},
		{
			name:    "events without topic",
			mutate:  func(c *Config) { c.EventsEnabled = true; c.EventsTopic = "" },
			wantErr: "EventsTopic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.ReservationLockTTL = 0
	cfg.MaxRequestSize = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1. Port")
	assert.Contains(t, err.Error(), "ReservationLockTTL")
	assert.Contains(t, err.Error(), "MaxRequestSize")
}

func TestNormalizePaginationLimit(t *testing.T) {
	assert.Equal(t, 10, NormalizePaginationLimit(0))
	assert.Equal(t, 25, NormalizePaginationLimit(25))
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(5000))
	assert.Equal(t, int64(0), NormalizeOffset(-3))
}
