package validator

import (
	"docket/pkg/logger"
	"docket/pkg/model"
	"docket/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingLinkValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingLinkValidator(log *logger.Logger) *BookingLinkValidator {
	v := validation.New(log)
	log.Info("Booking link validator initialized successfully")
	return &BookingLinkValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookingLinkValidator) ValidateRequest(req *model.BookingLinkRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		v.logger.Warn("Booking link validation failed",
			"lawyer_id", req.LawyerID,
			"client_id", req.ClientID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
