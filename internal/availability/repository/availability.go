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
	CollectionName = "Availability"
)

// AvailabilityRepository stores one template document per lawyer, keyed by
// lawyer id.
type AvailabilityRepository interface {
	Get(ctx context.Context, lawyerID string) (*model.Availability, error)
	Upsert(ctx context.Context, a *model.Availability) error
}

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAvailabilityRepository) Get(ctx context.Context, lawyerID string) (*model.Availability, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var a model.Availability
	err := r.collection.FindOne(ctx, bson.M{"_id": lawyerID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrNotFound, lawyerID)
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}
	return &a, nil
}

func (r *mongoAvailabilityRepository) Upsert(ctx context.Context, a *model.Availability) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	a.UpdatedAt = a.UpdatedAt.UTC().Truncate(time.Millisecond)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": a.LawyerID}, a, opts); err != nil {
		return fmt.Errorf("failed to upsert availability: %w", err)
	}
	return nil
}
