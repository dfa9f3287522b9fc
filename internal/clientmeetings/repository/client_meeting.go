package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	clientmeetingserrors "docket/internal/clientmeetings/errors"
	"docket/pkg/config"
	mongotx "docket/pkg/db/mongo"
	"docket/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Client_meetings"
)

type ClientMeetingRepository interface {
	Create(ctx context.Context, m *model.ClientMeeting) error
	FindByID(ctx context.Context, id string) (*model.ClientMeeting, error)
	FindCommitted(ctx context.Context, lawyerID string, from, to time.Time) ([]*model.ClientMeeting, error)
	Transition(ctx context.Context, id string, change model.ClientStatusChange) (*model.ClientMeeting, error)
}

type mongoClientMeetingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoClientMeetingRepository(cfg *config.Config) ClientMeetingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClientMeetingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoClientMeetingRepository) Create(ctx context.Context, m *model.ClientMeeting) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	m.ScheduledAt = m.ScheduledAt.UTC()
	m.EndsAt = m.Interval().End
	m.CreatedAt = m.CreatedAt.UTC().Truncate(time.Millisecond)
	m.UpdatedAt = m.CreatedAt
	if _, err := r.collection.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("failed to create client meeting: %w", err)
	}
	return nil
}

func (r *mongoClientMeetingRepository) FindByID(ctx context.Context, id string) (*model.ClientMeeting, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var m model.ClientMeeting
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", clientmeetingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find client meeting: %w", err)
	}
	return &m, nil
}

// FindCommitted returns the lawyer's non-cancelled meetings overlapping
// [from, to).
func (r *mongoClientMeetingRepository) FindCommitted(ctx context.Context, lawyerID string, from, to time.Time) ([]*model.ClientMeeting, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"lawyer_id":    lawyerID,
		"scheduled_at": bson.M{"$lt": to.UTC()},
		"ends_at":      bson.M{"$gt": from.UTC()},
		"status": bson.M{"$nin": []model.ClientMeetingStatus{
			model.CancelledByClient,
			model.CancelledByLawyer,
		}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query client meetings: %w", err)
	}
	defer cursor.Close(ctx)

	meetings := []*model.ClientMeeting{}
	if err = cursor.All(ctx, &meetings); err != nil {
		return nil, fmt.Errorf("failed to decode client meetings: %w", err)
	}
	return meetings, nil
}

// Transition applies change only while the stored status is one of
// change.From. A miss on an existing meeting is ErrStatusConflict.
func (r *mongoClientMeetingRepository) Transition(ctx context.Context, id string, change model.ClientStatusChange) (*model.ClientMeeting, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"status":     change.To,
		"updated_at": change.At.UTC().Truncate(time.Millisecond),
	}
	if change.Reason != "" {
		set["cancellation_reason"] = change.Reason
	}
	if change.OutcomeNote != "" {
		set["outcome_note"] = change.OutcomeNote
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": change.From}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m model.ClientMeeting
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update client meeting status: %w", err)
	}

	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: %s", clientmeetingserrors.ErrStatusConflict, id)
}
