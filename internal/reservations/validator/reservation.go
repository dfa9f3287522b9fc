package validator

import (
	"docket/pkg/logger"
	"docket/pkg/model"
	"docket/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validation.New(log)
	log.Info("Reservation validator initialized successfully")
	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ReservationValidator) ValidateRequest(req *model.ReservationRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		v.logger.Warn("Reservation request validation failed",
			"start", req.Start,
			"duration_minutes", req.DurationMinutes,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
