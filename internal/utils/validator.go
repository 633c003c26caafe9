package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/ot-portal/quiz-service/internal/errors"
	"github.com/ot-portal/quiz-service/internal/models"
)

// Validator wraps the struct-tag validator and converts its output into the
// service error taxonomy.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate runs struct-tag validation and returns ValidationErrors on
// failure.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("attempt_status", validateAttemptStatus)
	validate.RegisterValidation("failure_reason", validateFailureReason)

	// Report JSON field names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateAttemptStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.AttemptStatus{
		models.AttemptInProgress,
		models.AttemptCompleted,
		models.AttemptAbandoned,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func validateFailureReason(fl validator.FieldLevel) bool {
	validReasons := []models.FailureReason{
		models.FailureNone,
		models.FailureTimeout,
		models.FailureIncorrectLimit,
	}

	value := fl.Field().String()
	for _, validReason := range validReasons {
		if string(validReason) == value {
			return true
		}
	}
	return false
}
