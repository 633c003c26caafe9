package postgres

import (
	"context"
	"time"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type TokenPostgreSQL struct {
	db *gorm.DB
}

func NewTokenPostgreSQL(db *gorm.DB) *TokenPostgreSQL {
	return &TokenPostgreSQL{db: db}
}

func (t *TokenPostgreSQL) Create(ctx context.Context, token *models.QuizAccessToken) error {
	return t.db.WithContext(ctx).Create(token).Error
}

func (t *TokenPostgreSQL) GetByToken(ctx context.Context, token string) (*models.QuizAccessToken, error) {
	var record models.QuizAccessToken
	if err := t.db.WithContext(ctx).
		Where("token = ?", token).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (t *TokenPostgreSQL) GetByQuizAndUser(ctx context.Context, quizID uint, userID string) (*models.QuizAccessToken, error) {
	var record models.QuizAccessToken
	if err := t.db.WithContext(ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (t *TokenPostgreSQL) Update(ctx context.Context, token *models.QuizAccessToken) error {
	return t.db.WithContext(ctx).Save(token).Error
}

func (t *TokenPostgreSQL) Deactivate(ctx context.Context, id uint) error {
	return t.db.WithContext(ctx).
		Model(&models.QuizAccessToken{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (t *TokenPostgreSQL) MarkUsed(ctx context.Context, id uint) error {
	// Only the first successful entry flips the flag; resumes skip the write.
	return t.db.WithContext(ctx).
		Model(&models.QuizAccessToken{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_at": time.Now(),
		}).Error
}

func (t *TokenPostgreSQL) TryConsumeAttempt(ctx context.Context, id uint) (bool, error) {
	// Conditional increment is the serialization point against racing
	// attempt-creation requests.
	result := t.db.WithContext(ctx).
		Model(&models.QuizAccessToken{}).
		Where("id = ? AND current_attempts < max_attempts", id).
		UpdateColumn("current_attempts", gorm.Expr("current_attempts + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) *UserPostgreSQL {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	return u.db.WithContext(ctx).Create(user).Error
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) *AuditPostgreSQL {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) Create(ctx context.Context, event *models.AccessDenialEvent) error {
	return a.db.WithContext(ctx).Create(event).Error
}

func (a *AuditPostgreSQL) List(ctx context.Context, filters repositories.DenialFilters) ([]*models.AccessDenialEvent, int64, error) {
	var events []*models.AccessDenialEvent
	var total int64

	query := a.db.WithContext(ctx).Model(&models.AccessDenialEvent{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query.Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
