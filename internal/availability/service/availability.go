package service

import (
	"context"
	"errors"
	"strings"
	"time"

	availabilityerrors "docket/internal/availability/errors"
	"docket/internal/availability/repository"
	"docket/internal/availability/validator"
	"docket/pkg/clock"
	"docket/pkg/config"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sanitizer"
	"docket/pkg/validation"
)

type AvailabilityService interface {
	GetAvailability(ctx context.Context, lawyerID string) (*model.Availability, error)
	PutAvailability(ctx context.Context, lawyerID string, a *model.Availability) error
	ListExceptions(ctx context.Context, lawyerID, from, to string) ([]*model.AvailabilityException, error)
	PutException(ctx context.Context, lawyerID, date string, e *model.AvailabilityException) error
	DeleteException(ctx context.Context, lawyerID, date string) error
}

type availabilityService struct {
	repo       repository.AvailabilityRepository
	exceptions repository.ExceptionRepository
	validator  *validator.AvailabilityValidator
	clock      clock.Clock
	cfg        *config.Config
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	exceptions repository.ExceptionRepository,
	validator *validator.AvailabilityValidator,
	clk clock.Clock,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:       repo,
		exceptions: exceptions,
		validator:  validator,
		clock:      clk,
		cfg:        cfg,
	}
}

func (s *availabilityService) GetAvailability(ctx context.Context, lawyerID string) (*model.Availability, error) {
	lawyerID = sanitizer.NormalizeID(lawyerID)
	if lawyerID == "" {
		return nil, apperrors.InvalidInput("Lawyer ID cannot be empty")
	}

	a, err := s.repo.Get(ctx, lawyerID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", lawyerID)
		}
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}
	return a, nil
}

func (s *availabilityService) PutAvailability(ctx context.Context, lawyerID string, a *model.Availability) error {
	a.LawyerID = sanitizer.NormalizeID(lawyerID)
	s.sanitizeAvailability(a)
	s.applyDefaults(a)

	if err := s.validator.ValidateAvailability(a); err != nil {
		return validationError("Availability validation failed", err)
	}

	a.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Upsert(ctx, a); err != nil {
		s.cfg.Log.Error("Failed to store availability", "lawyer_id", a.LawyerID, "error", err)
		return apperrors.Internal("Failed to store availability", err)
	}

	s.cfg.Log.Info("Availability updated",
		"lawyer_id", a.LawyerID,
		"time_zone", a.TimeZone,
	)
	return nil
}

func (s *availabilityService) ListExceptions(ctx context.Context, lawyerID, from, to string) ([]*model.AvailabilityException, error) {
	lawyerID = sanitizer.NormalizeID(lawyerID)
	if lawyerID == "" {
		return nil, apperrors.InvalidInput("Lawyer ID cannot be empty")
	}
	if err := validateDateRange(from, to); err != nil {
		return nil, err
	}

	exceptions, err := s.exceptions.ListRange(ctx, lawyerID, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve availability exceptions", err)
	}
	return exceptions, nil
}

func (s *availabilityService) PutException(ctx context.Context, lawyerID, date string, e *model.AvailabilityException) error {
	e.LawyerID = sanitizer.NormalizeID(lawyerID)
	e.Date = strings.TrimSpace(date)
	e.Reason = sanitizer.TrimAndNormalize(e.Reason)
	if e.IsBlocked {
		e.CustomSlots = nil
	} else {
		e.CustomSlots = sanitizeSlots(e.CustomSlots)
	}

	if err := s.validator.ValidateException(e); err != nil {
		return validationError("Availability exception validation failed", err)
	}

	now := s.clock.Now().UTC()
	e.UpdatedAt = now
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if err := s.exceptions.Upsert(ctx, e); err != nil {
		s.cfg.Log.Error("Failed to store availability exception", "lawyer_id", e.LawyerID, "date", e.Date, "error", err)
		return apperrors.Internal("Failed to store availability exception", err)
	}

	s.cfg.Log.Info("Availability exception stored",
		"lawyer_id", e.LawyerID,
		"date", e.Date,
		"is_blocked", e.IsBlocked,
		"custom_slots", len(e.CustomSlots),
	)
	return nil
}

func (s *availabilityService) DeleteException(ctx context.Context, lawyerID, date string) error {
	lawyerID = sanitizer.NormalizeID(lawyerID)
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return apperrors.InvalidInput("date must be in YYYY-MM-DD format")
	}

	if err := s.exceptions.Delete(ctx, lawyerID, date); err != nil {
		if errors.Is(err, availabilityerrors.ErrExceptionNotFound) {
			return apperrors.NotFoundWithID("Availability exception", date)
		}
		return apperrors.Internal("Failed to delete availability exception", err)
	}

	s.cfg.Log.Info("Availability exception deleted", "lawyer_id", lawyerID, "date", date)
	return nil
}

func (s *availabilityService) sanitizeAvailability(a *model.Availability) {
	a.TimeZone = strings.TrimSpace(a.TimeZone)
	a.Policy.DefaultLocation = sanitizer.TrimAndNormalize(a.Policy.DefaultLocation)
	for day, schedule := range a.Weekly {
		schedule.Slots = sanitizeSlots(schedule.Slots)
		a.Weekly[day] = schedule
	}
}

// applyDefaults fills missing weekdays as disabled so stored templates
// always carry all seven keys.
func (s *availabilityService) applyDefaults(a *model.Availability) {
	if a.Weekly == nil {
		a.Weekly = make(map[model.Weekday]model.DaySchedule, len(model.Weekdays))
	}
	for _, day := range model.Weekdays {
		schedule, ok := a.Weekly[day]
		if !ok {
			schedule = model.DaySchedule{Enabled: false}
		}
		if schedule.Slots == nil {
			schedule.Slots = []model.TimeSlot{}
		}
		a.Weekly[day] = schedule
	}
	if a.Policy.BufferPlacement == "" {
		a.Policy.BufferPlacement = model.BufferBoth
	}
	if a.Policy.AllowedDurations == nil {
		a.Policy.AllowedDurations = []int{}
	}
}

func sanitizeSlots(slots []model.TimeSlot) []model.TimeSlot {
	for i := range slots {
		slots[i].Start = strings.TrimSpace(slots[i].Start)
		slots[i].End = strings.TrimSpace(slots[i].End)
	}
	return slots
}

func validateDateRange(from, to string) error {
	fromDate, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return apperrors.Validation("Invalid date range", map[string]any{"from": "must be a date in YYYY-MM-DD format"})
	}
	toDate, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return apperrors.Validation("Invalid date range", map[string]any{"to": "must be a date in YYYY-MM-DD format"})
	}
	if toDate.Before(fromDate) {
		return apperrors.Validation("Invalid date range", map[string]any{"to": "must not be before from"})
	}
	return nil
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
