package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "docket/internal/reservations/errors"
	"docket/pkg/config"
	"docket/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Reservation_locks"
)

// ReservationLockRepository provides operations for advisory locks
type ReservationLockRepository interface {
	Create(ctx context.Context, lock *model.ReservationLock) error
	DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error)
	Delete(ctx context.Context, id, owner string) error
}

type mongoReservationLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Create returns ErrLockHeld if a lock with the same id already exists
func (r *mongoReservationLockRepository) Create(ctx context.Context, lock *model.ReservationLock) error {
	lock.CreatedAt = lock.CreatedAt.UTC().Truncate(time.Millisecond)
	lock.ExpiresAt = lock.ExpiresAt.UTC().Truncate(time.Millisecond)

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", reservationserrors.ErrLockHeld, lock.ID)
		}
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}
	return nil
}

// DeleteExpired removes a lock whose holder died without releasing it. The
// TTL index does the same eventually, but its sweep runs only once a minute.
func (r *mongoReservationLockRepository) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return false, fmt.Errorf("failed to delete expired reservation lock: %w", err)
	}
	return result.DeletedCount == 1, nil
}

// Delete removes an advisory lock held by owner
func (r *mongoReservationLockRepository) Delete(ctx context.Context, id, owner string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner}); err != nil {
		return fmt.Errorf("failed to delete reservation lock: %w", err)
	}
	return nil
}
