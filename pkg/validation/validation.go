package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"docket/pkg/logger"
	"docket/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details is the shape placed into AppError details.
func (v ValidationErrors) Details() map[string]any {
	fields := make([]map[string]string, 0, len(v))
	for _, e := range v {
		fields = append(fields, map[string]string{"field": e.Field, "message": e.Message})
	}
	return map[string]any{"errors": fields}
}

// New returns a validator with the scheduling tags registered: clock
// (HH:MM or 24:00), isodate (YYYY-MM-DD) and weekday (map keys).
func New(log *logger.Logger) *validator.Validate {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		log.Fatal("Failed to register 'isodate' validator", "error", err)
	}
	if err := v.RegisterValidation("weekday", validateWeekday); err != nil {
		log.Fatal("Failed to register 'weekday' validator", "error", err)
	}
	v.RegisterTagNameFunc(jsonFieldName)

	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	return model.Weekday(fl.Field().String()).Valid()
}

// Struct validates s and translates tag failures into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()
		field := fieldPath(err)

		switch err.Tag() {
		case "required", "required_without":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "clock":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "weekday":
			message = fmt.Sprintf("%s is not a weekday name (sunday-saturday)", err.Value())
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA time zone name", err.Field())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return err.Field()
}
