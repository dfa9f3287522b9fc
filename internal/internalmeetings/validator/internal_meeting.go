package validator

import (
	"docket/pkg/logger"
	"docket/pkg/model"
	"docket/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type InternalMeetingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewInternalMeetingValidator(log *logger.Logger) *InternalMeetingValidator {
	v := validation.New(log)
	log.Info("Internal meeting validator initialized successfully")
	return &InternalMeetingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *InternalMeetingValidator) ValidateMeeting(m *model.InternalMeeting) error {
	if err := validation.Struct(v.validate, m); err != nil {
		v.logger.Warn("Internal meeting validation failed",
			"title", m.Title,
			"created_by", m.CreatedBy,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (v *InternalMeetingValidator) ValidateSummary(req *model.SummaryRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		v.logger.Warn("Meeting summary validation failed",
			"requester_id", req.RequesterID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (v *InternalMeetingValidator) ValidateStruct(s any) error {
	return validation.Struct(v.validate, s)
}
