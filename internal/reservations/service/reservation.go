package service

import (
	"context"
	"errors"
	"strings"
	"time"

	clientmeetingsrepo "docket/internal/clientmeetings/repository"
	"docket/internal/events"
	linkserrors "docket/internal/links/errors"
	linksrepo "docket/internal/links/repository"
	linksservice "docket/internal/links/service"
	"docket/internal/reservations/lock"
	"docket/internal/reservations/validator"
	"docket/internal/slots"
	"docket/pkg/clock"
	"docket/pkg/config"
	mongotx "docket/pkg/db/mongo"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sanitizer"
	"docket/pkg/validation"

	"github.com/google/uuid"
)

type LinkResolver interface {
	GetByToken(ctx context.Context, token string) (*linksservice.LinkView, error)
	Resolve(ctx context.Context, token string) (*model.BookingLink, error)
}

type SlotSource interface {
	Generate(ctx context.Context, lawyerID, from, to string, durationMinutes int) ([]slots.Slot, error)
	Check(ctx context.Context, lawyerID string, start time.Time, durationMinutes int) (*model.Availability, error)
}

// BookingPage is what a client sees when opening a link.
type BookingPage struct {
	LinkID          string          `json:"link_id"`
	LawyerID        string          `json:"lawyer_id"`
	State           model.LinkState `json:"state"`
	ExpiresAt       time.Time       `json:"expires_at"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	Slots           []slots.Slot    `json:"slots"`
}

type PageQuery struct {
	From            string
	To              string
	DurationMinutes int
}

type ReservationService interface {
	Page(ctx context.Context, token string, q PageQuery) (*BookingPage, error)
	Reserve(ctx context.Context, token string, req *model.ReservationRequest) (*model.ClientMeeting, error)
}

type Deps struct {
	Links        LinkResolver
	LinkStore    linksrepo.BookingLinkRepository
	Meetings     clientmeetingsrepo.ClientMeetingRepository
	Slots        SlotSource
	Locker       lock.Locker
	Transactions mongotx.TransactionManager
	Publisher    events.Publisher
}

type reservationService struct {
	deps      Deps
	validator *validator.ReservationValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewReservationService(deps Deps, validator *validator.ReservationValidator, clk clock.Clock, cfg *config.Config) ReservationService {
	return &reservationService{
		deps:      deps,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

// Page reports the link state and, while the link is usable and a duration
// is given, the bookable slots between From and To.
func (s *reservationService) Page(ctx context.Context, token string, q PageQuery) (*BookingPage, error) {
	view, err := s.deps.Links.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	page := &BookingPage{
		LinkID:          view.Link.ID,
		LawyerID:        view.Link.LawyerID,
		State:           view.State,
		ExpiresAt:       view.Link.ExpiresAt,
		DurationMinutes: q.DurationMinutes,
		Slots:           []slots.Slot{},
	}
	if view.State != model.LinkIssued || q.DurationMinutes == 0 {
		return page, nil
	}

	from := strings.TrimSpace(q.From)
	if from == "" {
		from = s.clock.Now().UTC().Format(model.DateLayout)
	}
	to := strings.TrimSpace(q.To)
	if to == "" {
		to = from
	}

	page.Slots, err = s.deps.Slots.Generate(ctx, view.Link.LawyerID, from, to, q.DurationMinutes)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Reserve books [req.Start, req.Start+duration) through the link named by
// token. Reservations for one lawyer are serialized by the lock, and the
// availability recheck, the link consumption and the meeting insert commit
// together or not at all.
func (s *reservationService) Reserve(ctx context.Context, token string, req *model.ReservationRequest) (*model.ClientMeeting, error) {
	req.Notes = sanitizer.NormalizeNote(req.Notes)
	req.MeetingType = model.MeetingType(strings.ToLower(strings.TrimSpace(string(req.MeetingType))))
	if err := s.validator.ValidateRequest(req); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Reservation validation failed", verrs.Details())
		}
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	link, err := s.deps.Links.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	release, err := s.deps.Locker.Acquire(ctx, lock.Key(link.LawyerID))
	if err != nil {
		s.cfg.Log.Error("Failed to acquire reservation lock",
			"lawyer_id", link.LawyerID,
			"link_id", link.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to acquire reservation lock", err)
	}

	meeting, err := s.reserveLocked(ctx, link, req)

	if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
		s.cfg.Log.Error("Failed to release reservation lock", "lawyer_id", link.LawyerID, "error", releaseErr)
	}
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Client meeting reserved",
		"meeting_id", meeting.ID,
		"link_id", link.ID,
		"lawyer_id", meeting.LawyerID,
		"scheduled_at", meeting.ScheduledAt,
		"duration_minutes", meeting.DurationMinutes,
		"status", meeting.Status,
	)

	evt := events.Event{
		Type:       events.ClientMeetingReserved,
		Key:        meeting.LawyerID,
		OccurredAt: meeting.CreatedAt,
		Payload: events.MeetingReservedPayload{
			MeetingID:       meeting.ID,
			LinkID:          link.ID,
			LawyerID:        meeting.LawyerID,
			ClientID:        meeting.ClientID,
			CaseID:          meeting.CaseID,
			ScheduledAt:     meeting.ScheduledAt,
			DurationMinutes: meeting.DurationMinutes,
			Status:          string(meeting.Status),
		},
	}
	if err := s.deps.Publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Error("Failed to publish event", "type", evt.Type, "meeting_id", meeting.ID, "error", err)
	}
	return meeting, nil
}

func (s *reservationService) reserveLocked(ctx context.Context, link *model.BookingLink, req *model.ReservationRequest) (*model.ClientMeeting, error) {
	start := req.Start.UTC()
	var meeting *model.ClientMeeting

	err := s.deps.Transactions.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		availability, err := s.deps.Slots.Check(txCtx, link.LawyerID, start, req.DurationMinutes)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		m := &model.ClientMeeting{
			ID:              uuid.NewString(),
			LawyerID:        link.LawyerID,
			ClientID:        link.ClientID,
			CaseID:          link.CaseID,
			BookingLinkID:   link.ID,
			ScheduledAt:     start,
			DurationMinutes: req.DurationMinutes,
			MeetingType:     req.MeetingType,
			Notes:           req.Notes,
			Status:          model.Pending,
			CreatedAt:       now,
		}
		if m.MeetingType == "" {
			m.MeetingType = model.InPerson
		}
		if m.MeetingType == model.InPerson {
			m.Location = availability.Policy.DefaultLocation
		}
		if availability.Policy.AutoConfirm {
			m.Status = model.Confirmed
		}

		if err := s.deps.LinkStore.MarkUsed(txCtx, link.ID, m.ID, now); err != nil {
			switch {
			case errors.Is(err, linkserrors.ErrAlreadyUsed):
				return apperrors.LinkAlreadyUsed()
			case errors.Is(err, linkserrors.ErrExpired):
				return apperrors.LinkExpired()
			case errors.Is(err, linkserrors.ErrNotFound):
				return apperrors.LinkInvalid()
			}
			return apperrors.Internal("Failed to mark booking link used", err)
		}
		if err := s.deps.Meetings.Create(txCtx, m); err != nil {
			return apperrors.Internal("Failed to create client meeting", err)
		}
		meeting = m
		return nil
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			err = apperrors.Internal("Failed to reserve meeting", err)
		}
		if apperrors.HasCode(err, apperrors.CodeInternal) {
			s.cfg.Log.Error("Reservation transaction failed", "lawyer_id", link.LawyerID, "link_id", link.ID, "error", err)
			return nil, err
		}
		s.cfg.Log.Warn("Reservation rejected",
			"lawyer_id", link.LawyerID,
			"link_id", link.ID,
			"start", start,
			"error", err,
		)
		return nil, err
	}
	return meeting, nil
}
