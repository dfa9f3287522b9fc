package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	linkserrors "docket/internal/links/errors"
	"docket/pkg/config"
	mongotx "docket/pkg/db/mongo"
	"docket/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Booking_links"
)

type BookingLinkRepository interface {
	Create(ctx context.Context, link *model.BookingLink) error
	FindByID(ctx context.Context, id string) (*model.BookingLink, error)
	FindAll(ctx context.Context, lawyerID string, limit int, offset int64) ([]*model.BookingLink, error)
	Count(ctx context.Context, lawyerID string) (int64, error)
	MarkUsed(ctx context.Context, id, meetingID string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type mongoBookingLinkRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLinkRepository(cfg *config.Config) BookingLinkRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLinkRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingLinkRepository) Create(ctx context.Context, link *model.BookingLink) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	link.CreatedAt = link.CreatedAt.UTC().Truncate(time.Millisecond)
	link.ExpiresAt = link.ExpiresAt.UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, link); err != nil {
		return fmt.Errorf("failed to create booking link: %w", err)
	}
	return nil
}

func (r *mongoBookingLinkRepository) FindByID(ctx context.Context, id string) (*model.BookingLink, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var link model.BookingLink
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", linkserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking link: %w", err)
	}
	return &link, nil
}

func lawyerFilter(lawyerID string) bson.M {
	if lawyerID == "" {
		return bson.M{}
	}
	return bson.M{"lawyer_id": lawyerID}
}

func (r *mongoBookingLinkRepository) FindAll(ctx context.Context, lawyerID string, limit int, offset int64) ([]*model.BookingLink, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, lawyerFilter(lawyerID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking links: %w", err)
	}
	defer cursor.Close(ctx)

	links := []*model.BookingLink{}
	if err = cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode booking links: %w", err)
	}
	return links, nil
}

func (r *mongoBookingLinkRepository) Count(ctx context.Context, lawyerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, lawyerFilter(lawyerID))
	if err != nil {
		return 0, fmt.Errorf("failed to count booking links: %w", err)
	}
	return count, nil
}

// MarkUsed flips is_used only while it is still false and at is before
// expires_at. A miss on an existing link is reported as ErrAlreadyUsed or
// ErrExpired, so exactly one reservation can consume it.
func (r *mongoBookingLinkRepository) MarkUsed(ctx context.Context, id, meetingID string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        id,
		"is_used":    false,
		"expires_at": bson.M{"$gt": at.UTC()},
	}
	update := bson.M{
		"$set": bson.M{
			"is_used":    true,
			"used_at":    at.UTC().Truncate(time.Millisecond),
			"meeting_id": meetingID,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark booking link used: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	var current struct {
		IsUsed bool `bson:"is_used"`
	}
	opts := options.FindOne().SetProjection(bson.M{"is_used": 1})
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&current); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: %s", linkserrors.ErrNotFound, id)
		}
		return fmt.Errorf("failed to check booking link: %w", err)
	}
	if current.IsUsed {
		return fmt.Errorf("%w: %s", linkserrors.ErrAlreadyUsed, id)
	}
	return fmt.Errorf("%w: %s", linkserrors.ErrExpired, id)
}

func (r *mongoBookingLinkRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking link: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", linkserrors.ErrNotFound, id)
	}
	return nil
}
