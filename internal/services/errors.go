package services

import (
	"errors"
	"fmt"

	apperrors "github.com/ot-portal/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Quiz specific errors
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrQuizInactive    = errors.New("quiz is not active")
	ErrQuizNotAssigned = errors.New("quiz is not assigned to this user")

	// Category / question errors
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInactive = errors.New("category is not active")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAnswerNotFound   = errors.New("answer not found")

	// Attempt specific errors
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptNotActive     = errors.New("attempt is not active")
	ErrAttemptNotFinished   = errors.New("attempt is not finished")
	ErrAttemptAccessDenied  = errors.New("access denied to attempt")
	ErrDuplicateAnswer      = errors.New("question already answered in this attempt")
	ErrQuestionNotInAttempt = errors.New("question does not belong to this attempt")
	ErrSkipNotAllowed       = errors.New("skipping is not allowed for this quiz")

	// Token specific errors
	ErrTokenNotFound        = errors.New("access token not found")
	ErrTokenDeactivated     = errors.New("access token deactivated")
	ErrTokenAlreadyUsed     = errors.New("access token already used")
	ErrTokenNotYetValid     = errors.New("access token not yet active")
	ErrTokenExpired         = errors.New("access token expired")
	ErrTokenWrongUser       = errors.New("access token belongs to another user")
	ErrTokenExists          = errors.New("user already has a token for this quiz")
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded for this token")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// StateError marks operations that are structurally valid but not allowed in
// the entity's current state, so callers can tell "bad input" from "not
// allowed right now".
type StateError struct {
	Resource string `json:"resource"`
	ID       uint   `json:"id"`
	State    string `json:"state"`
	Message  string `json:"message"`
}

func (se *StateError) Error() string {
	return fmt.Sprintf("invalid state for %s %d (%s): %s", se.Resource, se.ID, se.State, se.Message)
}

func (se *StateError) Unwrap() error {
	// StateErrors wrap the matching sentinel so errors.Is keeps working.
	switch se.Message {
	case ErrAttemptNotActive.Error():
		return ErrAttemptNotActive
	case ErrAttemptNotFinished.Error():
		return ErrAttemptNotFinished
	case ErrAttemptLimitExceeded.Error():
		return ErrAttemptLimitExceeded
	default:
		return nil
	}
}

func NewStateError(resource string, id uint, state string, sentinel error) *StateError {
	return &StateError{
		Resource: resource,
		ID:       id,
		State:    state,
		Message:  sentinel.Error(),
	}
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrTokenNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrDuplicateAnswer) ||
		errors.Is(err, ErrQuestionNotInAttempt) ||
		errors.Is(err, ErrSkipNotAllowed) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsState checks if error represents a state-machine rejection
func IsState(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return true
	}
	return errors.Is(err, ErrAttemptNotActive) ||
		errors.Is(err, ErrAttemptNotFinished) ||
		errors.Is(err, ErrAttemptLimitExceeded)
}

// IsTokenRejection checks if error is one of the token gate refusals
func IsTokenRejection(err error) bool {
	return errors.Is(err, ErrTokenDeactivated) ||
		errors.Is(err, ErrTokenAlreadyUsed) ||
		errors.Is(err, ErrTokenNotYetValid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenWrongUser)
}

// IsForbidden checks if error represents an access rejection
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrAttemptAccessDenied) ||
		errors.Is(err, ErrQuizNotAssigned) ||
		IsTokenRejection(err)
}
