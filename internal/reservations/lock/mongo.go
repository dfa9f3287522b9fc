package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "docket/internal/reservations/errors"
	"docket/internal/reservations/repository"
	"docket/pkg/clock"
	"docket/pkg/model"
)

const mongoRetryDelay = 25 * time.Millisecond

// Mongo holds a lock as a document whose _id is the lock key. Inserting a
// second document with the same key fails with a duplicate key error,
// which the repository reports as ErrLockHeld.
type Mongo struct {
	repo  repository.ReservationLockRepository
	ttl   time.Duration
	wait  time.Duration
	clock clock.Clock
}

func NewMongo(repo repository.ReservationLockRepository, ttl, wait time.Duration, clk clock.Clock) *Mongo {
	if clk == nil {
		clk = clock.System()
	}
	return &Mongo{
		repo:  repo,
		ttl:   ttl,
		wait:  wait,
		clock: clk,
	}
}

func (m *Mongo) Acquire(ctx context.Context, key string) (Release, error) {
	owner := newOwner()
	ctx, cancel := context.WithTimeout(ctx, m.wait)
	defer cancel()

	for {
		now := m.clock.Now()
		err := m.repo.Create(ctx, &model.ReservationLock{
			ID:        key,
			Owner:     owner,
			CreatedAt: now,
			ExpiresAt: now.Add(m.ttl),
		})
		if err == nil {
			return m.release(key, owner), nil
		}
		if !errors.Is(err, reservationserrors.ErrLockHeld) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockTimeout, key)
			}
			return nil, err
		}

		// The holder may have crashed; take over once its lease is over.
		stolen, err := m.repo.DeleteExpired(ctx, key, now)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if stolen {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockTimeout, key)
		case <-time.After(mongoRetryDelay):
		}
	}
}

func (m *Mongo) release(key, owner string) Release {
	return func(ctx context.Context) error {
		return m.repo.Delete(context.WithoutCancel(ctx), key, owner)
	}
}
