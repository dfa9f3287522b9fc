package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"docket/internal/calendar"
	clientmeetingserrors "docket/internal/clientmeetings/errors"
	"docket/internal/clientmeetings/repository"
	"docket/internal/events"
	"docket/pkg/clock"
	"docket/pkg/config"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sanitizer"
	"docket/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ClientMeetingService interface {
	Get(ctx context.Context, id string) (*model.ClientMeeting, error)
	Confirm(ctx context.Context, id string) (*model.ClientMeeting, error)
	Complete(ctx context.Context, id string, req *model.CompleteRequest) (*model.ClientMeeting, error)
	Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.ClientMeeting, error)
	NoShow(ctx context.Context, id string) (*model.ClientMeeting, error)
	ICS(ctx context.Context, id string) ([]byte, error)
}

type clientMeetingService struct {
	repo      repository.ClientMeetingRepository
	publisher events.Publisher
	validate  *validator.Validate
	clock     clock.Clock
	cfg       *config.Config
}

func NewClientMeetingService(
	repo repository.ClientMeetingRepository,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) ClientMeetingService {
	return &clientMeetingService{
		repo:      repo,
		publisher: publisher,
		validate:  validation.New(cfg.Log),
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *clientMeetingService) Get(ctx context.Context, id string) (*model.ClientMeeting, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Meeting ID cannot be empty")
	}

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, clientmeetingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Client meeting", id)
		}
		return nil, apperrors.Internal("Failed to retrieve client meeting", err)
	}
	return m, nil
}

func (s *clientMeetingService) Confirm(ctx context.Context, id string) (*model.ClientMeeting, error) {
	return s.transition(ctx, id, model.ClientStatusChange{
		From: []model.ClientMeetingStatus{model.Pending},
		To:   model.Confirmed,
	})
}

func (s *clientMeetingService) Complete(ctx context.Context, id string, req *model.CompleteRequest) (*model.ClientMeeting, error) {
	req.OutcomeNote = sanitizer.NormalizeNote(req.OutcomeNote)
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ClientStatusChange{
		From:        model.ActiveClientStatuses,
		To:          model.Completed,
		OutcomeNote: req.OutcomeNote,
	})
}

func (s *clientMeetingService) Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.ClientMeeting, error) {
	req.CancelledBy = strings.ToLower(strings.TrimSpace(req.CancelledBy))
	req.Reason = sanitizer.NormalizeNote(req.Reason)
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ClientStatusChange{
		From:   model.ActiveClientStatuses,
		To:     req.Status(),
		Reason: req.Reason,
	})
}

func (s *clientMeetingService) NoShow(ctx context.Context, id string) (*model.ClientMeeting, error) {
	return s.transition(ctx, id, model.ClientStatusChange{
		From: model.ActiveClientStatuses,
		To:   model.NoShow,
	})
}

func (s *clientMeetingService) ICS(ctx context.Context, id string) ([]byte, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := calendar.ClientMeeting(m)
	if err != nil {
		return nil, apperrors.Internal("Failed to render calendar", err)
	}
	return data, nil
}

func (s *clientMeetingService) check(req any) error {
	if err := validation.Struct(s.validate, req); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Request validation failed", verrs.Details())
		}
		return apperrors.Validation("Request validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// transition applies change when the stored status is one of change.From.
// Terminal meetings and lost races both surface as IllegalTransition from
// the status actually stored.
func (s *clientMeetingService) transition(ctx context.Context, id string, change model.ClientStatusChange) (*model.ClientMeeting, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(change.From, current.Status) {
		s.cfg.Log.Warn("Rejected client meeting transition",
			"meeting_id", current.ID,
			"from", current.Status,
			"to", change.To,
		)
		return nil, apperrors.IllegalTransition(string(current.Status), string(change.To))
	}

	change.At = s.clock.Now().UTC()
	updated, err := s.repo.Transition(ctx, current.ID, change)
	if err != nil {
		switch {
		case errors.Is(err, clientmeetingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Client meeting", current.ID)
		case errors.Is(err, clientmeetingserrors.ErrStatusConflict):
			latest, getErr := s.Get(ctx, current.ID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.IllegalTransition(string(latest.Status), string(change.To))
		}
		s.cfg.Log.Error("Failed to update client meeting status", "meeting_id", current.ID, "error", err)
		return nil, apperrors.Internal("Failed to update client meeting status", err)
	}

	s.cfg.Log.Info("Client meeting status changed",
		"meeting_id", updated.ID,
		"lawyer_id", updated.LawyerID,
		"from", current.Status,
		"to", updated.Status,
	)

	evt := events.Event{
		Type:       events.ClientMeetingStatus,
		Key:        updated.LawyerID,
		OccurredAt: change.At,
		Payload: events.StatusChangedPayload{
			MeetingID: updated.ID,
			From:      string(current.Status),
			To:        string(updated.Status),
			Reason:    change.Reason,
		},
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Error("Failed to publish event", "type", evt.Type, "meeting_id", updated.ID, "error", err)
	}
	return updated, nil
}
