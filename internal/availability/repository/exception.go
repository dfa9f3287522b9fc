package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "docket/internal/availability/errors"
	"docket/pkg/config"
	mongotx "docket/pkg/db/mongo"
	"docket/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ExceptionsCollectionName = "Availability_exceptions"
)

// ExceptionRepository holds at most one exception per (lawyer_id, date);
// the unique compound index created by the migration enforces it.
type ExceptionRepository interface {
	Upsert(ctx context.Context, e *model.AvailabilityException) error
	Get(ctx context.Context, lawyerID, date string) (*model.AvailabilityException, error)
	ListRange(ctx context.Context, lawyerID, from, to string) ([]*model.AvailabilityException, error)
	Delete(ctx context.Context, lawyerID, date string) error
}

type mongoExceptionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoExceptionRepository(cfg *config.Config) ExceptionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoExceptionRepository{
		cfg:        cfg,
		collection: db.Collection(ExceptionsCollectionName),
	}
}

func (r *mongoExceptionRepository) Upsert(ctx context.Context, e *model.AvailabilityException) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := e.UpdatedAt.UTC().Truncate(time.Millisecond)
	filter := bson.M{"lawyer_id": e.LawyerID, "date": e.Date}
	update := bson.M{
		"$set": bson.M{
			"is_blocked":   e.IsBlocked,
			"custom_slots": e.CustomSlots,
			"reason":       e.Reason,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on insert; the loser retries as an update.
		_, err = r.collection.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert availability exception: %w", err)
	}
	return nil
}

func (r *mongoExceptionRepository) Get(ctx context.Context, lawyerID, date string) (*model.AvailabilityException, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var e model.AvailabilityException
	err := r.collection.FindOne(ctx, bson.M{"lawyer_id": lawyerID, "date": date}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s %s", availabilityerrors.ErrExceptionNotFound, lawyerID, date)
		}
		return nil, fmt.Errorf("failed to find availability exception: %w", err)
	}
	return &e, nil
}

// ListRange returns exceptions with from <= date <= to. Dates are stored as
// YYYY-MM-DD so string order is calendar order.
func (r *mongoExceptionRepository) ListRange(ctx context.Context, lawyerID, from, to string) ([]*model.AvailabilityException, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"lawyer_id": lawyerID,
		"date":      bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	exceptions := []*model.AvailabilityException{}
	if err = cursor.All(ctx, &exceptions); err != nil {
		return nil, fmt.Errorf("failed to decode availability exceptions: %w", err)
	}
	return exceptions, nil
}

func (r *mongoExceptionRepository) Delete(ctx context.Context, lawyerID, date string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"lawyer_id": lawyerID, "date": date})
	if err != nil {
		return fmt.Errorf("failed to delete availability exception: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s %s", availabilityerrors.ErrExceptionNotFound, lawyerID, date)
	}
	return nil
}
