package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"docket/internal/events"
	linkserrors "docket/internal/links/errors"
	"docket/internal/links/repository"
	"docket/internal/links/validator"
	"docket/pkg/clock"
	"docket/pkg/config"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sanitizer"
	"docket/pkg/sealer"
	"docket/pkg/validation"

	"github.com/google/uuid"
)

// LinkView is a link together with its state at read time.
type LinkView struct {
	Link  *model.BookingLink `json:"link"`
	State model.LinkState    `json:"state"`
}

type BookingLinkService interface {
	Issue(ctx context.Context, req *model.BookingLinkRequest) (*model.BookingLink, error)
	GetByToken(ctx context.Context, token string) (*LinkView, error)
	Resolve(ctx context.Context, token string) (*model.BookingLink, error)
	List(ctx context.Context, lawyerID string, limit int, offset int64) ([]*model.BookingLink, int64, error)
	Delete(ctx context.Context, id string) error
}

type bookingLinkService struct {
	repo      repository.BookingLinkRepository
	validator *validator.BookingLinkValidator
	sealer    *sealer.Sealer
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingLinkService(
	repo repository.BookingLinkRepository,
	validator *validator.BookingLinkValidator,
	sealer *sealer.Sealer,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) BookingLinkService {
	return &bookingLinkService{
		repo:      repo,
		validator: validator,
		sealer:    sealer,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *bookingLinkService) Issue(ctx context.Context, req *model.BookingLinkRequest) (*model.BookingLink, error) {
	req.LawyerID = sanitizer.NormalizeID(req.LawyerID)
	req.ClientID = sanitizer.NormalizeID(req.ClientID)
	req.CaseID = sanitizer.NormalizeID(req.CaseID)
	req.NotificationChannel = model.NotificationChannel(strings.ToLower(strings.TrimSpace(string(req.NotificationChannel))))

	if err := s.validator.ValidateRequest(req); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Booking link validation failed", verrs.Details())
		}
		return nil, apperrors.Validation("Booking link validation failed", map[string]any{"error": err.Error()})
	}

	ttl := s.cfg.BookingLinkTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	id := uuid.NewString()
	token, err := s.sealer.Seal(id)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue booking link token", err)
	}

	now := s.clock.Now().UTC()
	link := &model.BookingLink{
		ID:                  id,
		LawyerID:            req.LawyerID,
		ClientID:            req.ClientID,
		CaseID:              req.CaseID,
		Token:               token,
		NotificationChannel: req.NotificationChannel,
		CreatedAt:           now,
		ExpiresAt:           now.Add(ttl),
	}
	if err := s.repo.Create(ctx, link); err != nil {
		s.cfg.Log.Error("Failed to create booking link", "lawyer_id", link.LawyerID, "client_id", link.ClientID, "error", err)
		return nil, apperrors.Internal("Failed to create booking link", err)
	}

	s.cfg.Log.Info("Booking link issued",
		"link_id", link.ID,
		"lawyer_id", link.LawyerID,
		"client_id", link.ClientID,
		"notification_channel", link.NotificationChannel,
		"expires_at", link.ExpiresAt,
	)

	s.publish(ctx, events.Event{
		Type:       events.BookingLinkIssued,
		Key:        link.LawyerID,
		OccurredAt: now,
		Payload: events.BookingLinkIssuedPayload{
			LinkID:              link.ID,
			LawyerID:            link.LawyerID,
			ClientID:            link.ClientID,
			CaseID:              link.CaseID,
			NotificationChannel: string(link.NotificationChannel),
			Token:               link.Token,
			ExpiresAt:           link.ExpiresAt,
		},
	})
	return link, nil
}

// lookup opens the token and loads the link it names. Malformed, forged and
// unknown tokens are indistinguishable to the caller.
func (s *bookingLinkService) lookup(ctx context.Context, token string) (*model.BookingLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.LinkInvalid()
	}
	id, err := s.sealer.Open(token)
	if err != nil {
		s.cfg.Log.Warn("Rejected booking link token", "error", err)
		return nil, apperrors.LinkInvalid()
	}

	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) {
			return nil, apperrors.LinkInvalid()
		}
		return nil, apperrors.Internal("Failed to retrieve booking link", err)
	}
	return link, nil
}

func (s *bookingLinkService) GetByToken(ctx context.Context, token string) (*LinkView, error) {
	link, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return &LinkView{Link: link, State: link.State(s.clock.Now())}, nil
}

// Resolve returns the link only while it can still be used for a reservation.
func (s *bookingLinkService) Resolve(ctx context.Context, token string) (*model.BookingLink, error) {
	link, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	switch link.State(s.clock.Now()) {
	case model.LinkUsed:
		return nil, apperrors.LinkAlreadyUsed()
	case model.LinkExpired:
		return nil, apperrors.LinkExpired()
	}
	return link, nil
}

func (s *bookingLinkService) List(ctx context.Context, lawyerID string, limit int, offset int64) ([]*model.BookingLink, int64, error) {
	lawyerID = sanitizer.NormalizeID(lawyerID)
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	links, err := s.repo.FindAll(ctx, lawyerID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to retrieve booking links", err)
	}
	total, err := s.repo.Count(ctx, lawyerID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count booking links", err)
	}
	return links, total, nil
}

func (s *bookingLinkService) Delete(ctx context.Context, id string) error {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return apperrors.InvalidInput("Booking link ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking link", id)
		}
		return apperrors.Internal("Failed to delete booking link", err)
	}

	s.cfg.Log.Info("Booking link deleted", "link_id", id)
	s.publish(ctx, events.Event{
		Type:       events.BookingLinkDeleted,
		Key:        id,
		OccurredAt: s.clock.Now().UTC(),
		Payload:    events.BookingLinkDeletedPayload{LinkID: id},
	})
	return nil
}

func (s *bookingLinkService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Error("Failed to publish event", "type", evt.Type, "key", evt.Key, "error", err)
	}
}
