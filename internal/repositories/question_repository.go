package repositories

import (
	"context"

	"github.com/ot-portal/quiz-service/internal/models"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	// GetByIDWithAnswers preloads the question's answers ordered by
	// (order, id).
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)

	// GetActiveByCategory returns all active questions of a category ordered
	// by (order, id); the training-mode selection source.
	GetActiveByCategory(ctx context.Context, categoryID uint) ([]*models.Question, error)

	// GetByIDs returns questions with answers preloaded, in no particular
	// order; callers re-sort against the attempt's persisted ordering.
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
}
