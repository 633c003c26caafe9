package repositories

import (
	"context"

	"github.com/ot-portal/quiz-service/internal/models"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.QuizAccessToken) error
	GetByToken(ctx context.Context, token string) (*models.QuizAccessToken, error)
	GetByQuizAndUser(ctx context.Context, quizID uint, userID string) (*models.QuizAccessToken, error)
	Update(ctx context.Context, token *models.QuizAccessToken) error
	Deactivate(ctx context.Context, id uint) error

	// MarkUsed flips is_used/used_at only when the token is still unused, so
	// resumed entries do not re-trigger the write.
	MarkUsed(ctx context.Context, id uint) error

	// TryConsumeAttempt atomically increments current_attempts when it is
	// still below max_attempts, returning false when the cap is reached.
	// This is the serialization point for concurrent attempt creation.
	TryConsumeAttempt(ctx context.Context, id uint) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuditRepository interface {
	Create(ctx context.Context, event *models.AccessDenialEvent) error
	List(ctx context.Context, filters DenialFilters) ([]*models.AccessDenialEvent, int64, error)
}
