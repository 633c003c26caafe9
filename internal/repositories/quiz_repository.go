package repositories

import (
	"context"

	"github.com/ot-portal/quiz-service/internal/models"
)

// QuizRepository covers quiz configuration access. The attempt engine only
// reads this configuration at attempt-creation time and snapshots it.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	// GetByIDWithDetails preloads ordered category links and assigned users.
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Category link management. SetCategoryOrder replaces the ordered join
	// rows for the quiz in one pass.
	GetCategoryLinks(ctx context.Context, quizID uint) ([]*models.QuizCategoryOrder, error)
	SetCategoryOrder(ctx context.Context, quizID uint, orders []models.QuizCategoryOrder) error

	// Assignment checks
	IsAssigned(ctx context.Context, quizID uint, userID string) (bool, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.QuizCategory) error
	GetByID(ctx context.Context, id uint) (*models.QuizCategory, error)
	Update(ctx context.Context, category *models.QuizCategory) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, onlyActive bool) ([]*models.QuizCategory, error)
	CountActiveQuestions(ctx context.Context, categoryID uint) (int64, error)
}
