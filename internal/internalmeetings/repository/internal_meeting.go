package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalmeetingserrors "docket/internal/internalmeetings/errors"
	"docket/pkg/config"
	mongotx "docket/pkg/db/mongo"
	"docket/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Internal_meetings"
)

type InternalMeetingRepository interface {
	Create(ctx context.Context, m *model.InternalMeeting) error
	FindByID(ctx context.Context, id string) (*model.InternalMeeting, error)
	FindCommittedForParticipant(ctx context.Context, userID string, from, to time.Time) ([]*model.InternalMeeting, error)
	Transition(ctx context.Context, id string, change model.InternalStatusChange) (*model.InternalMeeting, error)
}

type mongoInternalMeetingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInternalMeetingRepository(cfg *config.Config) InternalMeetingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInternalMeetingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoInternalMeetingRepository) Create(ctx context.Context, m *model.InternalMeeting) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	m.ScheduledAt = m.ScheduledAt.UTC()
	m.EndsAt = m.Interval().End
	m.CreatedAt = m.CreatedAt.UTC().Truncate(time.Millisecond)
	m.UpdatedAt = m.CreatedAt
	if _, err := r.collection.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("failed to create internal meeting: %w", err)
	}
	return nil
}

func (r *mongoInternalMeetingRepository) FindByID(ctx context.Context, id string) (*model.InternalMeeting, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var m model.InternalMeeting
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", internalmeetingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find internal meeting: %w", err)
	}
	return &m, nil
}

// FindCommittedForParticipant returns non-cancelled meetings that include
// userID and overlap [from, to).
func (r *mongoInternalMeetingRepository) FindCommittedForParticipant(ctx context.Context, userID string, from, to time.Time) ([]*model.InternalMeeting, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"participants": userID,
		"scheduled_at": bson.M{"$lt": to.UTC()},
		"ends_at":      bson.M{"$gt": from.UTC()},
		"status":       bson.M{"$ne": model.Cancelled},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query internal meetings: %w", err)
	}
	defer cursor.Close(ctx)

	meetings := []*model.InternalMeeting{}
	if err = cursor.All(ctx, &meetings); err != nil {
		return nil, fmt.Errorf("failed to decode internal meetings: %w", err)
	}
	return meetings, nil
}

// Transition applies change only while the stored status is one of
// change.From. From may contain To, which lets a summary be rewritten on
// a completed meeting.
func (r *mongoInternalMeetingRepository) Transition(ctx context.Context, id string, change model.InternalStatusChange) (*model.InternalMeeting, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	at := change.At.UTC().Truncate(time.Millisecond)
	set := bson.M{
		"status":     change.To,
		"updated_at": at,
	}
	if change.Reason != "" {
		set["cancellation_reason"] = change.Reason
	}
	if change.Summary != nil {
		set["summary"] = change.Summary
	}
	if change.StartedAt != nil {
		set["started_at"] = change.StartedAt.UTC().Truncate(time.Millisecond)
	}
	if change.To == model.Done {
		set["completed_at"] = at
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": change.From}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m model.InternalMeeting
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update internal meeting status: %w", err)
	}

	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: %s", internalmeetingserrors.ErrStatusConflict, id)
}
