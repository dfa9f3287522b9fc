// Package lock serializes reservations per lawyer. Every backend bounds
// the wait for a held lock and reports a timeout as ErrLockTimeout; none
// of them retries past that bound.
package lock

import (
	"context"
	"fmt"

	"docket/internal/reservations/repository"
	"docket/pkg/config"

	"github.com/google/uuid"
)

// Release frees an acquired lock. It must be called exactly once.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Key is the lock name shared by every backend.
func Key(lawyerID string) string {
	return "reservation:lawyer:" + lawyerID
}

func newOwner() string {
	return uuid.New().String()
}

// New picks the backend named by RESERVATION_LOCK_BACKEND.
func New(cfg *config.Config) (Locker, error) {
	switch cfg.ReservationLockBackend {
	case config.LockBackendLocal:
		return NewLocal(cfg.ReservationLockWait), nil
	case config.LockBackendMongo:
		return NewMongo(repository.NewReservationLockRepository(cfg), cfg.ReservationLockTTL, cfg.ReservationLockWait, nil), nil
	case config.LockBackendRedis:
		if cfg.Client.Redis == nil {
			return nil, fmt.Errorf("redis client is required for the %s lock backend", config.LockBackendRedis)
		}
		return NewRedis(cfg.Client.Redis, cfg.ReservationLockTTL, cfg.ReservationLockWait), nil
	default:
		return nil, fmt.Errorf("unknown reservation lock backend: %s", cfg.ReservationLockBackend)
	}
}
