package postgres

import (
	"context"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) *QuizPostgreSQL {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("CategoryLinks", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_category_orders.\"order\" ASC")
		}).
		Preload("CategoryLinks.Category").
		Preload("AssignedUsers").
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Save(quiz).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.Quiz{}, id).Error
}

func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Quiz{})
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filters.SortBy, filters.SortOrder, map[string]bool{
		"created_at": true,
		"title":      true,
	})
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func (q *QuizPostgreSQL) GetCategoryLinks(ctx context.Context, quizID uint) ([]*models.QuizCategoryOrder, error) {
	var links []*models.QuizCategoryOrder
	if err := q.db.WithContext(ctx).
		Joins("Category").
		Where("quiz_category_orders.quiz_id = ?", quizID).
		Order("quiz_category_orders.\"order\" ASC, \"Category\".name ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (q *QuizPostgreSQL) SetCategoryOrder(ctx context.Context, quizID uint, orders []models.QuizCategoryOrder) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizCategoryOrder{}).Error; err != nil {
			return err
		}
		for i := range orders {
			orders[i].QuizID = quizID
		}
		if len(orders) == 0 {
			return nil
		}
		return tx.Create(&orders).Error
	})
}

func (q *QuizPostgreSQL) IsAssigned(ctx context.Context, quizID uint, userID string) (bool, error) {
	var assignedCount int64
	if err := q.db.WithContext(ctx).
		Table("quiz_assigned_users").
		Where("quiz_id = ?", quizID).
		Count(&assignedCount).Error; err != nil {
		return false, err
	}
	// No explicit assignments means open to all.
	if assignedCount == 0 {
		return true, nil
	}

	var count int64
	if err := q.db.WithContext(ctx).
		Table("quiz_assigned_users").
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type CategoryPostgreSQL struct {
	db *gorm.DB
}

func NewCategoryPostgreSQL(db *gorm.DB) *CategoryPostgreSQL {
	return &CategoryPostgreSQL{db: db}
}

func (c *CategoryPostgreSQL) Create(ctx context.Context, category *models.QuizCategory) error {
	return c.db.WithContext(ctx).Create(category).Error
}

func (c *CategoryPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizCategory, error) {
	var category models.QuizCategory
	if err := c.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *CategoryPostgreSQL) Update(ctx context.Context, category *models.QuizCategory) error {
	return c.db.WithContext(ctx).Save(category).Error
}

func (c *CategoryPostgreSQL) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&models.QuizCategory{}, id).Error
}

func (c *CategoryPostgreSQL) List(ctx context.Context, onlyActive bool) ([]*models.QuizCategory, error) {
	var categories []*models.QuizCategory
	query := c.db.WithContext(ctx).Order("\"order\" ASC, name ASC")
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *CategoryPostgreSQL) CountActiveQuestions(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Count(&count).Error
	return count, err
}
