package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"docket/internal/calendar"
	"docket/internal/events"
	internalmeetingserrors "docket/internal/internalmeetings/errors"
	"docket/internal/internalmeetings/repository"
	"docket/internal/internalmeetings/validator"
	"docket/pkg/clock"
	"docket/pkg/config"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sanitizer"
	"docket/pkg/validation"

	"github.com/google/uuid"
)

// ButtonView is the projected action for one viewer.
type ButtonView struct {
	MeetingID      string            `json:"meeting_id"`
	ViewerID       string            `json:"viewer_id"`
	State          model.ButtonState `json:"state"`
	CanEditSummary bool              `json:"can_edit_summary"`
	JoinOpensAt    time.Time         `json:"join_opens_at"`
	JoinClosesAt   time.Time         `json:"join_closes_at"`
}

type InternalMeetingService interface {
	Create(ctx context.Context, m *model.InternalMeeting) error
	Get(ctx context.Context, id string) (*model.InternalMeeting, error)
	Button(ctx context.Context, id, viewerID string) (*ButtonView, error)
	Start(ctx context.Context, id string) (*model.InternalMeeting, error)
	Join(ctx context.Context, id string, req *model.JoinRequest) (*model.InternalMeeting, error)
	Complete(ctx context.Context, id string) (*model.InternalMeeting, error)
	Cancel(ctx context.Context, id string, req *model.InternalCancelRequest) (*model.InternalMeeting, error)
	WriteSummary(ctx context.Context, id string, req *model.SummaryRequest) (*model.InternalMeeting, error)
	ICS(ctx context.Context, id string) ([]byte, error)
}

type internalMeetingService struct {
	repo      repository.InternalMeetingRepository
	validator *validator.InternalMeetingValidator
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewInternalMeetingService(
	repo repository.InternalMeetingRepository,
	validator *validator.InternalMeetingValidator,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) InternalMeetingService {
	return &internalMeetingService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func (s *internalMeetingService) Create(ctx context.Context, m *model.InternalMeeting) error {
	s.sanitize(m)
	s.applyDefaults(m)

	if err := s.validator.ValidateMeeting(m); err != nil {
		return validationError("Internal meeting validation failed", err)
	}

	now := s.clock.Now().UTC()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := s.repo.Create(ctx, m); err != nil {
		s.cfg.Log.Error("Failed to create internal meeting", "title", m.Title, "created_by", m.CreatedBy, "error", err)
		return apperrors.Internal("Failed to create internal meeting", err)
	}

	s.cfg.Log.Info("Internal meeting created",
		"meeting_id", m.ID,
		"created_by", m.CreatedBy,
		"participants", len(m.Participants),
		"scheduled_at", m.ScheduledAt,
	)
	s.publish(ctx, events.Event{
		Type:       events.InternalMeetingCreated,
		Key:        m.ID,
		OccurredAt: now,
		Payload: events.InternalMeetingCreatedPayload{
			MeetingID:    m.ID,
			Title:        m.Title,
			CreatedBy:    m.CreatedBy,
			Participants: m.Participants,
			ScheduledAt:  m.ScheduledAt,
		},
	})
	return nil
}

func (s *internalMeetingService) sanitize(m *model.InternalMeeting) {
	m.Title = sanitizer.TrimAndNormalize(m.Title)
	m.Agenda = sanitizer.NormalizeNote(m.Agenda)
	m.Location = sanitizer.TrimAndNormalize(m.Location)
	m.VideoURL = sanitizer.NormalizeURL(m.VideoURL)
	m.CreatedBy = sanitizer.NormalizeID(m.CreatedBy)
	m.Participants = sanitizer.NormalizeParticipants(m.Participants)
	m.ScheduledAt = m.ScheduledAt.UTC()
}

// applyDefaults resets server-owned fields; a new meeting is always
// scheduled and carries no summary.
func (s *internalMeetingService) applyDefaults(m *model.InternalMeeting) {
	if m.SummaryPermission == "" {
		m.SummaryPermission = model.CreatorOnly
	}
	m.Status = model.Scheduled
	m.Summary = nil
	m.CancellationReason = ""
	m.StartedAt = nil
	m.CompletedAt = nil
}

func (s *internalMeetingService) Get(ctx context.Context, id string) (*model.InternalMeeting, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Meeting ID cannot be empty")
	}

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, internalmeetingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Internal meeting", id)
		}
		return nil, apperrors.Internal("Failed to retrieve internal meeting", err)
	}
	return m, nil
}

func (s *internalMeetingService) Button(ctx context.Context, id, viewerID string) (*ButtonView, error) {
	viewerID = sanitizer.NormalizeID(viewerID)
	if viewerID == "" {
		return nil, apperrors.InvalidInput("'viewer' query parameter is required")
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	opens, closes := JoinWindow(m)
	return &ButtonView{
		MeetingID:      m.ID,
		ViewerID:       viewerID,
		State:          ProjectButtonState(m, viewerID, s.clock.Now()),
		CanEditSummary: CanEditSummary(m, viewerID),
		JoinOpensAt:    opens,
		JoinClosesAt:   closes,
	}, nil
}

func (s *internalMeetingService) Start(ctx context.Context, id string) (*model.InternalMeeting, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	return s.transition(ctx, m, model.InternalStatusChange{
		From:      []model.InternalMeetingStatus{model.Scheduled},
		To:        model.InProgress,
		StartedAt: &now,
	})
}

// Join starts a scheduled meeting when a participant uses the join control
// inside the join window. Joining a meeting already in progress changes
// nothing.
func (s *internalMeetingService) Join(ctx context.Context, id string, req *model.JoinRequest) (*model.InternalMeeting, error) {
	req.UserID = sanitizer.NormalizeID(req.UserID)
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validationError("Join request validation failed", err)
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(req.UserID) {
		return nil, apperrors.Forbidden("Only participants can join the meeting")
	}
	if m.Status == model.InProgress {
		return m, nil
	}

	now := s.clock.Now().UTC()
	if m.Status != model.Scheduled || ProjectButtonState(m, req.UserID, now) != model.ButtonJoin {
		return nil, apperrors.IllegalTransition(string(m.Status), string(model.InProgress))
	}
	return s.transition(ctx, m, model.InternalStatusChange{
		From:      []model.InternalMeetingStatus{model.Scheduled},
		To:        model.InProgress,
		StartedAt: &now,
	})
}

func (s *internalMeetingService) Complete(ctx context.Context, id string) (*model.InternalMeeting, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, m, model.InternalStatusChange{
		From: []model.InternalMeetingStatus{model.Scheduled, model.InProgress},
		To:   model.Done,
	})
}

func (s *internalMeetingService) Cancel(ctx context.Context, id string, req *model.InternalCancelRequest) (*model.InternalMeeting, error) {
	req.Reason = sanitizer.NormalizeNote(req.Reason)
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validationError("Cancel request validation failed", err)
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, m, model.InternalStatusChange{
		From:   []model.InternalMeetingStatus{model.Scheduled, model.InProgress},
		To:     model.Cancelled,
		Reason: req.Reason,
	})
}

// WriteSummary stores the summary for an editor. On a meeting that has
// started, by the clock or by status, it also completes the meeting; on a
// completed meeting it replaces the previous summary.
func (s *internalMeetingService) WriteSummary(ctx context.Context, id string, req *model.SummaryRequest) (*model.InternalMeeting, error) {
	req.RequesterID = sanitizer.NormalizeID(req.RequesterID)
	req.Text = sanitizer.NormalizeNote(req.Text)
	req.Decisions = sanitizer.NormalizeLines(req.Decisions)
	req.ActionItems = sanitizer.NormalizeLines(req.ActionItems)
	if err := s.validator.ValidateSummary(req); err != nil {
		return nil, validationError("Meeting summary validation failed", err)
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEditSummary(m, req.RequesterID) {
		s.cfg.Log.Warn("Rejected meeting summary",
			"meeting_id", m.ID,
			"requester_id", req.RequesterID,
			"summary_permission", m.SummaryPermission,
			"status", m.Status,
		)
		return nil, apperrors.Forbidden("Requester may not edit this meeting summary")
	}

	now := s.clock.Now().UTC()
	change := model.InternalStatusChange{
		Summary: &model.MeetingSummary{
			Text:        req.Text,
			Decisions:   req.Decisions,
			ActionItems: req.ActionItems,
			WrittenBy:   req.RequesterID,
			WrittenAt:   now,
		},
	}
	switch {
	case m.Status == model.Done:
		change.From = []model.InternalMeetingStatus{model.Done}
		change.To = model.Done
	case m.Status == model.InProgress || !now.Before(m.ScheduledAt):
		change.From = []model.InternalMeetingStatus{model.Scheduled, model.InProgress}
		change.To = model.Done
	default:
		change.From = []model.InternalMeetingStatus{model.Scheduled}
		change.To = model.Scheduled
	}

	updated, err := s.transition(ctx, m, change)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:       events.InternalMeetingSummary,
		Key:        updated.ID,
		OccurredAt: now,
		Payload:    events.SummaryWrittenPayload{MeetingID: updated.ID, WrittenBy: req.RequesterID},
	})
	return updated, nil
}

func (s *internalMeetingService) ICS(ctx context.Context, id string) ([]byte, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := calendar.InternalMeeting(m)
	if err != nil {
		return nil, apperrors.Internal("Failed to render calendar", err)
	}
	return data, nil
}

func (s *internalMeetingService) transition(ctx context.Context, current *model.InternalMeeting, change model.InternalStatusChange) (*model.InternalMeeting, error) {
	if !slices.Contains(change.From, current.Status) {
		s.cfg.Log.Warn("Rejected internal meeting transition",
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
		case errors.Is(err, internalmeetingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Internal meeting", current.ID)
		case errors.Is(err, internalmeetingserrors.ErrStatusConflict):
			latest, getErr := s.Get(ctx, current.ID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.IllegalTransition(string(latest.Status), string(change.To))
		}
		s.cfg.Log.Error("Failed to update internal meeting", "meeting_id", current.ID, "error", err)
		return nil, apperrors.Internal("Failed to update internal meeting", err)
	}

	if updated.Status == current.Status {
		return updated, nil
	}

	s.cfg.Log.Info("Internal meeting status changed",
		"meeting_id", updated.ID,
		"from", current.Status,
		"to", updated.Status,
	)
	s.publish(ctx, events.Event{
		Type:       events.InternalMeetingStatus,
		Key:        updated.ID,
		OccurredAt: change.At,
		Payload: events.StatusChangedPayload{
			MeetingID: updated.ID,
			From:      string(current.Status),
			To:        string(updated.Status),
			Reason:    change.Reason,
		},
	})
	return updated, nil
}

func (s *internalMeetingService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Error("Failed to publish event", "type", evt.Type, "key", evt.Key, "error", err)
	}
}

