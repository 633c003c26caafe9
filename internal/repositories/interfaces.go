package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ot-portal/quiz-service/internal/models"
	"gorm.io/gorm"
)

// Repository is the aggregate access point the service layer works against.
// WithTransaction runs fn against a repository bound to a single database
// transaction; every attempt state transition goes through it.
type Repository interface {
	Quiz() QuizRepository
	Category() CategoryRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Ordering() OrderingRepository
	Token() TokenRepository
	User() UserRepository
	Audit() AuditRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the persistence layer's record-miss.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a uniqueness-constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	IsActive  *bool   `json:"is_active"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "title"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type QuestionFilters struct {
	CategoryID *uint `json:"category_id"`
	IsActive   *bool `json:"is_active"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

type AttemptFilters struct {
	Status     models.AttemptStatus `json:"status"`
	QuizID     *uint                `json:"quiz_id"`
	UserID     *string              `json:"user_id"`
	CategoryID *uint                `json:"category_id"`
	DateFrom   *time.Time           `json:"date_from"`
	DateTo     *time.Time           `json:"date_to"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortBy     string               `json:"sort_by"`
	SortOrder  string               `json:"sort_order"`
}

type DenialFilters struct {
	UserID   *string    `json:"user_id"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type AttemptStats struct {
	TotalAttempts   int                          `json:"total_attempts"`
	StatusBreakdown map[models.AttemptStatus]int `json:"status_breakdown"`
	AverageScore    float64                      `json:"average_score"`
	PassRate        float64                      `json:"pass_rate"`
	TimeoutCount    int                          `json:"timeout_count"`
	ErrorLimitCount int                          `json:"error_limit_count"`
}
