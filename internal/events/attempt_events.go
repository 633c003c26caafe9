package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ot-portal/quiz-service/internal/models"
)

// EventType represents different types of quiz events
type EventType string

const (
	// Attempt lifecycle events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"
	EventAttemptAbandoned EventType = "attempt.abandoned"

	// Token events
	EventTokenIssued  EventType = "token.issued"
	EventTokenRevoked EventType = "token.revoked"

	// Access gate events
	EventAccessDenied EventType = "access.denied"
)

// QuizEvent is the base event structure published to the broker
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Attempt event payloads

type AttemptEvent struct {
	AttemptID     uint                 `json:"attempt_id"`
	QuizID        uint                 `json:"quiz_id"`
	UserID        string               `json:"user_id"`
	CategoryID    *uint                `json:"category_id,omitempty"`
	Status        models.AttemptStatus `json:"status"`
	FailureReason models.FailureReason `json:"failure_reason"`
	Score         float64              `json:"score"`
	Passed        bool                 `json:"passed"`
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

type TokenEvent struct {
	TokenID    uint      `json:"token_id"`
	QuizID     uint      `json:"quiz_id"`
	UserID     string    `json:"user_id"`
	ValidUntil time.Time `json:"valid_until"`
	IssuerID   string    `json:"issuer_id,omitempty"`
}

type AccessDeniedEvent struct {
	Path      string `json:"path"`
	Method    string `json:"method"`
	IPAddress string `json:"ip_address"`
	UserID    string `json:"user_id,omitempty"`
	Reason    string `json:"reason"`
}

// Event factory functions

func NewAttemptEvent(eventType EventType, attempt *models.QuizAttempt) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: AttemptEvent{
			AttemptID:     attempt.ID,
			QuizID:        attempt.QuizID,
			UserID:        attempt.UserID,
			CategoryID:    attempt.CategoryID,
			Status:        attempt.Status,
			FailureReason: attempt.FailureReason,
			Score:         attempt.ScorePercentage,
			Passed:        attempt.Passed,
			StartedAt:     attempt.StartedAt,
			CompletedAt:   attempt.CompletedAt,
		},
	}
}

func NewTokenEvent(eventType EventType, token *models.QuizAccessToken) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: TokenEvent{
			TokenID:    token.ID,
			QuizID:     token.QuizID,
			UserID:     token.UserID,
			ValidUntil: token.ValidUntil,
			IssuerID:   token.CreatedBy,
		},
	}
}

func NewAccessDeniedEvent(denial *models.AccessDenialEvent) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      EventAccessDenied,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: AccessDeniedEvent{
			Path:      denial.Path,
			Method:    denial.Method,
			IPAddress: denial.IPAddress,
			UserID:    denial.UserID,
			Reason:    denial.Reason,
		},
	}
}

// GenerateEventID returns a unique identifier for a new event.
func GenerateEventID() string {
	return uuid.NewString()
}
