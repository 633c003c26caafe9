package repositories

import (
	"context"
	"time"

	"github.com/ot-portal/quiz-service/internal/models"
)

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	// GetByIDWithDetails preloads answers and the category relation.
	GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizAttempt, error)
	Update(ctx context.Context, attempt *models.QuizAttempt) error

	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)

	// GetActiveAttempt returns the user's in-progress attempt for the quiz
	// and mode, or nil when there is none.
	GetActiveAttempt(ctx context.Context, quizID uint, userID string, categoryID *uint) (*models.QuizAttempt, error)

	// Finalize writes status, failure reason, score, passed and completed_at
	// in one statement guarded by `status = in_progress`. It returns false
	// when the attempt was already terminal, making finalization idempotent.
	Finalize(ctx context.Context, id uint, status models.AttemptStatus, reason models.FailureReason,
		score float64, passed bool, completedAt *time.Time) (bool, error)

	// IncrementCounter bumps exactly one of the answer counters.
	IncrementCounter(ctx context.Context, id uint, column string) error

	GetStats(ctx context.Context, quizID uint) (*AttemptStats, error)
}

type AnswerRepository interface {
	// Create persists a user answer; a uniqueness violation on
	// (attempt, question) is surfaced as a duplicate error.
	Create(ctx context.Context, answer *models.UserAnswer) error
	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.UserAnswer, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.UserAnswer, error)
	CountByAttempt(ctx context.Context, attemptID uint) (int64, error)
}

// OrderingRepository persists the question sequence assigned to an attempt.
type OrderingRepository interface {
	CreateBatch(ctx context.Context, orders []*models.QuizQuestionOrder) error
	// GetByAttempt returns rows sorted by their 0-based order.
	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.QuizQuestionOrder, error)
	Contains(ctx context.Context, attemptID, questionID uint) (bool, error)
}
