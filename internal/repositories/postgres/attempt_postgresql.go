package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) *AttemptPostgreSQL {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Preload("Category").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("user_answers.answered_at ASC")
		}).
		Preload("Answers.Question").
		Preload("Answers.SelectedAnswer").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a *AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filters.SortBy, filters.SortOrder, map[string]bool{
		"created_at": true,
		"started_at": true,
	})
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Preload("Category").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, quizID uint, userID string, categoryID *uint) (*models.QuizAttempt, error) {
	query := a.db.WithContext(ctx).
		Where("quiz_id = ? AND user_id = ? AND status = ?", quizID, userID, models.AttemptInProgress)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	} else {
		query = query.Where("category_id IS NULL")
	}

	var attempt models.QuizAttempt
	if err := query.First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Finalize(ctx context.Context, id uint, status models.AttemptStatus, reason models.FailureReason,
	score float64, passed bool, completedAt *time.Time) (bool, error) {
	// Guarded by the in_progress status so a second finalize is a no-op.
	result := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":           status,
			"failure_reason":   reason,
			"score_percentage": score,
			"passed":           passed,
			"completed_at":     completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (a *AttemptPostgreSQL) IncrementCounter(ctx context.Context, id uint, column string) error {
	switch column {
	case "correct_answers", "incorrect_answers", "skipped_questions":
	default:
		return errors.New("unknown attempt counter: " + column)
	}
	return a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (a *AttemptPostgreSQL) GetStats(ctx context.Context, quizID uint) (*repositories.AttemptStats, error) {
	var total int64
	if err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ?", quizID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	breakdown := make(map[models.AttemptStatus]int)
	for _, status := range []models.AttemptStatus{models.AttemptInProgress, models.AttemptCompleted, models.AttemptAbandoned} {
		var count int64
		if err := a.db.WithContext(ctx).
			Model(&models.QuizAttempt{}).
			Where("quiz_id = ? AND status = ?", quizID, status).
			Count(&count).Error; err != nil {
			return nil, err
		}
		breakdown[status] = int(count)
	}

	var avgScore float64
	var completed, passed, timeouts, errorLimited int64
	row := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND status = ?", quizID, models.AttemptCompleted).
		Select("COALESCE(AVG(score_percentage), 0)," +
			" COUNT(*)," +
			" COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0)," +
			" COALESCE(SUM(CASE WHEN failure_reason = 'timeout' THEN 1 ELSE 0 END), 0)," +
			" COALESCE(SUM(CASE WHEN failure_reason = 'incorrect_limit' THEN 1 ELSE 0 END), 0)").
		Row()
	if err := row.Scan(&avgScore, &completed, &passed, &timeouts, &errorLimited); err != nil {
		return nil, err
	}

	passRate := float64(0)
	if completed > 0 {
		passRate = float64(passed) / float64(completed)
	}

	return &repositories.AttemptStats{
		TotalAttempts:   int(total),
		StatusBreakdown: breakdown,
		AverageScore:    avgScore,
		PassRate:        passRate,
		TimeoutCount:    int(timeouts),
		ErrorLimitCount: int(errorLimited),
	}, nil
}

func (a *AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) *AnswerPostgreSQL {
	return &AnswerPostgreSQL{db: db}
}

func (r *AnswerPostgreSQL) Create(ctx context.Context, answer *models.UserAnswer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}

func (r *AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.UserAnswer, error) {
	var answers []*models.UserAnswer
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("answered_at ASC").
		Preload("Question").
		Preload("SelectedAnswer").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.UserAnswer, error) {
	var answer models.UserAnswer
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerPostgreSQL) CountByAttempt(ctx context.Context, attemptID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserAnswer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

type OrderingPostgreSQL struct {
	db *gorm.DB
}

func NewOrderingPostgreSQL(db *gorm.DB) *OrderingPostgreSQL {
	return &OrderingPostgreSQL{db: db}
}

func (r *OrderingPostgreSQL) CreateBatch(ctx context.Context, orders []*models.QuizQuestionOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}

func (r *OrderingPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.QuizQuestionOrder, error) {
	var orders []*models.QuizQuestionOrder
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("\"order\" ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderingPostgreSQL) Contains(ctx context.Context, attemptID, questionID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuizQuestionOrder{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
