package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	availabilityrepo "docket/internal/availability/repository"
	clientmeetingsrepo "docket/internal/clientmeetings/repository"
	internalmeetingsrepo "docket/internal/internalmeetings/repository"
	linksrepo "docket/internal/links/repository"
	"docket/internal/migrations/mongo/validators"
	reservationsrepo "docket/internal/reservations/repository"
	"docket/pkg/logger"
)

var (
	AvailabilityIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	}

	ExceptionsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "lawyer_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("lawyer_date_unique"),
		},
	}

	BookingLinksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("token_unique"),
		},
		{Keys: bson.D{{Key: "lawyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	ClientMeetingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "lawyer_id", Value: 1},
			{Key: "scheduled_at", Value: 1},
			{Key: "ends_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "booking_link_id", Value: 1}}},
	}

	InternalMeetingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "participants", Value: 1},
			{Key: "scheduled_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
	}

	// Expired lock documents are reaped by Mongo; the lock itself also
	// treats an expired document as free.
	ReservationLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		availabilityrepo.CollectionName: {
			Indexes:   AvailabilityIndexes,
			Validator: validators.AvailabilityValidator,
		},
		availabilityrepo.ExceptionsCollectionName: {
			Indexes:   ExceptionsIndexes,
			Validator: validators.ExceptionValidator,
		},
		linksrepo.CollectionName: {
			Indexes:   BookingLinksIndexes,
			Validator: validators.BookingLinkValidator,
		},
		clientmeetingsrepo.CollectionName: {
			Indexes:   ClientMeetingsIndexes,
			Validator: validators.ClientMeetingValidator,
		},
		internalmeetingsrepo.CollectionName: {
			Indexes:   InternalMeetingsIndexes,
			Validator: validators.InternalMeetingValidator,
		},
		reservationsrepo.CollectionName: {
			Indexes:   ReservationLocksIndexes,
			Validator: validators.ReservationLockValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
