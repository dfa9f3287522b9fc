package validator

import (
	"fmt"

	"docket/pkg/logger"
	"docket/pkg/model"
	"docket/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type AvailabilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAvailabilityValidator(log *logger.Logger) *AvailabilityValidator {
	v := validation.New(log)
	log.Info("Availability validator initialized successfully")
	return &AvailabilityValidator{
		validate: v,
		logger:   log,
	}
}

func (v *AvailabilityValidator) ValidateAvailability(a *model.Availability) error {
	errs := v.structErrors(a)

	for _, day := range model.Weekdays {
		schedule, ok := a.Weekly[day]
		if !ok {
			continue
		}
		errs = append(errs, checkSlots(fmt.Sprintf("weekly.%s.slots", day), schedule.Slots)...)
	}

	return v.result(errs)
}

func (v *AvailabilityValidator) ValidateException(e *model.AvailabilityException) error {
	errs := v.structErrors(e)
	if !e.IsBlocked {
		errs = append(errs, checkSlots("custom_slots", e.CustomSlots)...)
	}
	return v.result(errs)
}

func (v *AvailabilityValidator) structErrors(s any) validation.ValidationErrors {
	err := validation.Struct(v.validate, s)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validation.ValidationErrors); ok {
		return errs
	}
	return validation.ValidationErrors{{Field: "", Message: err.Error()}}
}

func (v *AvailabilityValidator) result(errs validation.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	v.logger.Warn("Availability validation failed", "errors", errs.Error())
	return errs
}

// checkSlots enforces start < end and an ascending, pairwise disjoint list.
// Adjacent slots may touch. Malformed clocks are reported by the struct tags.
func checkSlots(field string, slots []model.TimeSlot) validation.ValidationErrors {
	var errs validation.ValidationErrors
	prevEnd := -1
	for i, slot := range slots {
		start, end, err := slot.Minutes()
		if err != nil {
			continue
		}
		path := fmt.Sprintf("%s[%d]", field, i)
		if start >= end {
			errs = append(errs, validation.ValidationError{
				Field:   path,
				Message: fmt.Sprintf("start %s must be before end %s", slot.Start, slot.End),
			})
			continue
		}
		if start < prevEnd {
			errs = append(errs, validation.ValidationError{
				Field:   path,
				Message: "slots must be ascending and must not overlap",
			})
		}
		prevEnd = end
	}
	return errs
}
