package postgres

import (
	"context"

	"github.com/ot-portal/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository wires the gorm-backed implementations behind the
// repositories.Repository interface. A transactional copy shares the same
// construction path with the tx handle swapped in.
type Repository struct {
	db *gorm.DB

	quiz     *QuizPostgreSQL
	category *CategoryPostgreSQL
	question *QuestionPostgreSQL
	attempt  *AttemptPostgreSQL
	answer   *AnswerPostgreSQL
	ordering *OrderingPostgreSQL
	token    *TokenPostgreSQL
	user     *UserPostgreSQL
	audit    *AuditPostgreSQL
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:       db,
		quiz:     NewQuizPostgreSQL(db),
		category: NewCategoryPostgreSQL(db),
		question: NewQuestionPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		answer:   NewAnswerPostgreSQL(db),
		ordering: NewOrderingPostgreSQL(db),
		token:    NewTokenPostgreSQL(db),
		user:     NewUserPostgreSQL(db),
		audit:    NewAuditPostgreSQL(db),
	}
}

func (r *Repository) Quiz() repositories.QuizRepository         { return r.quiz }
func (r *Repository) Category() repositories.CategoryRepository { return r.category }
func (r *Repository) Question() repositories.QuestionRepository { return r.question }
func (r *Repository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *Repository) Answer() repositories.AnswerRepository     { return r.answer }
func (r *Repository) Ordering() repositories.OrderingRepository { return r.ordering }
func (r *Repository) Token() repositories.TokenRepository       { return r.token }
func (r *Repository) User() repositories.UserRepository         { return r.user }
func (r *Repository) Audit() repositories.AuditRepository       { return r.audit }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// applyPagination applies limit/offset when set.
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// applySort applies whitelisted ordering, defaulting to newest first.
func applySort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]bool) *gorm.DB {
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return query.Order(sortBy + " " + sortOrder)
}
