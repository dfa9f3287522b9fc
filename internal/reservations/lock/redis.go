package lock

import (
	"context"
	"fmt"
	"time"

	reservationserrors "docket/internal/reservations/errors"

	goredislib "github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

const redisRetryDelay = 50 * time.Millisecond

// Redis uses the Redlock implementation from redsync. The lease is the
// lock TTL, so a crashed holder blocks others for at most that long.
type Redis struct {
	redsync *redsync.Redsync
	ttl     time.Duration
	wait    time.Duration
}

func NewRedis(client *goredislib.Client, ttl, wait time.Duration) *Redis {
	pool := goredis.NewPool(client)
	return &Redis{
		redsync: redsync.New(pool),
		ttl:     ttl,
		wait:    wait,
	}
}

func (r *Redis) Acquire(ctx context.Context, key string) (Release, error) {
	tries := int(r.wait/redisRetryDelay) + 1
	mutex := r.redsync.NewMutex(key,
		redsync.WithExpiry(r.ttl),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(redisRetryDelay),
	)

	ctx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", reservationserrors.ErrLockTimeout, key, err)
	}

	return func(ctx context.Context) error {
		ok, err := mutex.UnlockContext(context.WithoutCancel(ctx))
		if err != nil {
			return fmt.Errorf("failed to release redis lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("redis lock %s expired before release", key)
		}
		return nil
	}, nil
}
