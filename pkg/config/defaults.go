package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "docket"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultBookingLinkTTL = 7 * 24 * time.Hour

	DefaultReservationLockBackend = LockBackendMongo
	DefaultReservationLockTTL     = 30 * time.Second
	DefaultReservationLockWait    = 5 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultMaxSlotRangeDays = 62

	DefaultEventsEnabled = false
	DefaultEventsTopic   = "docket.meetings"
)

const (
	LockBackendLocal = "local"
	LockBackendMongo = "mongo"
	LockBackendRedis = "redis"
)
