package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
)

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuizRepository) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Quiz), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) GetCategoryLinks(ctx context.Context, quizID uint) ([]*models.QuizCategoryOrder, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizCategoryOrder), args.Error(1)
}

func (m *MockQuizRepository) SetCategoryOrder(ctx context.Context, quizID uint, orders []models.QuizCategoryOrder) error {
	args := m.Called(ctx, quizID, orders)
	return args.Error(0)
}

func (m *MockQuizRepository) IsAssigned(ctx context.Context, quizID uint, userID string) (bool, error) {
	args := m.Called(ctx, quizID, userID)
	return args.Bool(0), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.QuizCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uint) (*models.QuizCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizCategory), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.QuizCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) List(ctx context.Context, onlyActive bool) ([]*models.QuizCategory, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizCategory), args.Error(1)
}

func (m *MockCategoryRepository) CountActiveQuestions(ctx context.Context, categoryID uint) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepository) GetActiveByCategory(ctx context.Context, categoryID uint) ([]*models.Question, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.QuizAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetActiveAttempt(ctx context.Context, quizID uint, userID string, categoryID *uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, quizID, userID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Finalize(ctx context.Context, id uint, status models.AttemptStatus, reason models.FailureReason,
	score float64, passed bool, completedAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, status, reason, score, passed, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) IncrementCounter(ctx context.Context, id uint, column string) error {
	args := m.Called(ctx, id, column)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetStats(ctx context.Context, quizID uint) (*repositories.AttemptStats, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.AttemptStats), args.Error(1)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Create(ctx context.Context, answer *models.UserAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.UserAnswer, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserAnswer), args.Error(1)
}

func (m *MockAnswerRepository) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.UserAnswer, error) {
	args := m.Called(ctx, attemptID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAnswer), args.Error(1)
}

func (m *MockAnswerRepository) CountByAttempt(ctx context.Context, attemptID uint) (int64, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderingRepository is a mock implementation of OrderingRepository
type MockOrderingRepository struct {
	mock.Mock
}

func (m *MockOrderingRepository) CreateBatch(ctx context.Context, orders []*models.QuizQuestionOrder) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *MockOrderingRepository) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.QuizQuestionOrder, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizQuestionOrder), args.Error(1)
}

func (m *MockOrderingRepository) Contains(ctx context.Context, attemptID, questionID uint) (bool, error) {
	args := m.Called(ctx, attemptID, questionID)
	return args.Bool(0), args.Error(1)
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *models.QuizAccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByToken(ctx context.Context, token string) (*models.QuizAccessToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAccessToken), args.Error(1)
}

func (m *MockTokenRepository) GetByQuizAndUser(ctx context.Context, quizID uint, userID string) (*models.QuizAccessToken, error) {
	args := m.Called(ctx, quizID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAccessToken), args.Error(1)
}

func (m *MockTokenRepository) Update(ctx context.Context, token *models.QuizAccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) Deactivate(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenRepository) MarkUsed(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenRepository) TryConsumeAttempt(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockRepository is a mock implementation of the aggregate Repository
// interface. WithTransaction just runs fn against the same mocks, which is
// enough for service-level tests.
type MockRepository struct {
	mock.Mock
	quiz     *MockQuizRepository
	category *MockCategoryRepository
	question *MockQuestionRepository
	attempt  *MockAttemptRepository
	answer   *MockAnswerRepository
	ordering *MockOrderingRepository
	token    *MockTokenRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		quiz:     &MockQuizRepository{},
		category: &MockCategoryRepository{},
		question: &MockQuestionRepository{},
		attempt:  &MockAttemptRepository{},
		answer:   &MockAnswerRepository{},
		ordering: &MockOrderingRepository{},
		token:    &MockTokenRepository{},
	}
}

func (m *MockRepository) Quiz() repositories.QuizRepository         { return m.quiz }
func (m *MockRepository) Category() repositories.CategoryRepository { return m.category }
func (m *MockRepository) Question() repositories.QuestionRepository { return m.question }
func (m *MockRepository) Attempt() repositories.AttemptRepository   { return m.attempt }
func (m *MockRepository) Answer() repositories.AnswerRepository     { return m.answer }
func (m *MockRepository) Ordering() repositories.OrderingRepository { return m.ordering }
func (m *MockRepository) Token() repositories.TokenRepository       { return m.token }
func (m *MockRepository) User() repositories.UserRepository         { return nil }
func (m *MockRepository) Audit() repositories.AuditRepository       { return nil }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// AssertExpectations verifies every sub-mock in one call.
func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.quiz.AssertExpectations(t)
	m.category.AssertExpectations(t)
	m.question.AssertExpectations(t)
	m.attempt.AssertExpectations(t)
	m.answer.AssertExpectations(t)
	m.ordering.AssertExpectations(t)
	m.token.AssertExpectations(t)
}

// ===== SHARED TEST HELPERS =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uintPtr(v uint) *uint {
	return &v
}
