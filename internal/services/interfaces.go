package services

import (
	"context"
	"io"
	"time"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type ServiceManager interface {
	Quiz() QuizService
	Attempt() AttemptService
	Token() TokenService
	ImportExport() ImportExportService
}

// QuizService is the read/admin surface over quiz configuration. The attempt
// engine reads this configuration once, at attempt creation.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error)
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)
	SetCategoryOrder(ctx context.Context, quizID uint, categoryIDs []uint) error

	CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.QuizCategory, error)
	ListCategories(ctx context.Context, onlyActive bool) ([]*models.QuizCategory, error)

	CreateQuestion(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error)
	ListQuestions(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	DeleteQuestion(ctx context.Context, id uint) error

	GetStats(ctx context.Context, quizID uint) (*repositories.AttemptStats, error)
}

type AttemptService interface {
	// Start validates eligibility, runs question selection once, snapshots
	// limits and persists the ordering. With a token it also performs the
	// atomic attempt-cap consumption. An existing in-progress attempt for
	// the same (quiz, user, mode) is resumed instead.
	Start(ctx context.Context, req *StartAttemptRequest, userID string) (*AttemptResponse, error)

	SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResponse, error)
	Finish(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error)
	Abandon(ctx context.Context, attemptID uint, userID string) error

	GetByID(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error)
	GetQuestions(ctx context.Context, attemptID uint, userID string) ([]AttemptQuestion, error)
	GetResult(ctx context.Context, attemptID uint, userID string) (*AttemptResult, error)
	List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error)
}

type TokenService interface {
	Issue(ctx context.Context, req *IssueTokenRequest, issuerID string) (*models.QuizAccessToken, error)
	Get(ctx context.Context, token string) (*models.QuizAccessToken, error)
	// Enter validates the credential for userID and marks it used on first
	// successful entry. It is the token-entry step of the exam flow.
	Enter(ctx context.Context, token string, userID string) (*models.QuizAccessToken, error)
	Revoke(ctx context.Context, token string) error
}

type ImportExportService interface {
	ImportQuestions(ctx context.Context, r io.Reader, categoryID uint) (*models.ImportSummary, error)
	ExportQuestions(ctx context.Context, req *models.ExportRequest) ([]byte, error)
}

// ===== REQUEST STRUCTS =====

type CreateQuizRequest struct {
	Title                string  `json:"title" validate:"required,min=1,max=200"`
	Description          *string `json:"description" validate:"omitempty,max=1000"`
	QuestionsPerCategory int     `json:"questions_per_category" validate:"min=0"`
	ExamTotalQuestions   int     `json:"exam_total_questions" validate:"min=0"`
	ExamTimeLimit        int     `json:"exam_time_limit" validate:"min=0"`
	ExamAllowedIncorrect int     `json:"exam_allowed_incorrect" validate:"min=0"`
	RandomOrder          bool    `json:"random_order"`
	ShowCorrectAnswer    bool    `json:"show_correct_answer"`
	AllowSkip            bool    `json:"allow_skip"`
	CategoryIDs          []uint  `json:"category_ids"`
	AssignedUserIDs      []string `json:"assigned_user_ids"`
}

type UpdateQuizRequest struct {
	Title                *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description          *string `json:"description" validate:"omitempty,max=1000"`
	QuestionsPerCategory *int    `json:"questions_per_category" validate:"omitempty,min=0"`
	ExamTotalQuestions   *int    `json:"exam_total_questions" validate:"omitempty,min=0"`
	ExamTimeLimit        *int    `json:"exam_time_limit" validate:"omitempty,min=0"`
	ExamAllowedIncorrect *int    `json:"exam_allowed_incorrect" validate:"omitempty,min=0"`
	RandomOrder          *bool   `json:"random_order"`
	ShowCorrectAnswer    *bool   `json:"show_correct_answer"`
	AllowSkip            *bool   `json:"allow_skip"`
	IsActive             *bool   `json:"is_active"`
}

type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}

type CreateAnswerRequest struct {
	AnswerText string `json:"answer_text" validate:"required,min=1"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

type CreateQuestionRequest struct {
	CategoryID   uint                  `json:"category_id" validate:"required"`
	QuestionText string                `json:"question_text" validate:"required,min=1"`
	ImageURL     *string               `json:"image_url"`
	Explanation  *string               `json:"explanation" validate:"omitempty,max=2000"`
	Order        int                   `json:"order"`
	IsActive     bool                  `json:"is_active"`
	Answers      []CreateAnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

type StartAttemptRequest struct {
	QuizID uint `json:"quiz_id" validate:"required"`
	// Non-nil selects category-training mode.
	CategoryID *uint `json:"category_id"`
	// Required when the quiz is entered through the token gate.
	Token string `json:"token"`
}

type SubmitAnswerRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
	// Null means the question is skipped.
	SelectedAnswerID *uint `json:"selected_answer_id"`
}

type IssueTokenRequest struct {
	QuizID       uint      `json:"quiz_id" validate:"required"`
	UserID       string    `json:"user_id" validate:"required"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until" validate:"required"`
	RequireLogin bool      `json:"require_login"`
	AllowResume  bool      `json:"allow_resume"`
	MaxAttempts  int       `json:"max_attempts" validate:"min=1"`
}

// ===== RESPONSE STRUCTS =====

type AttemptResponse struct {
	*models.QuizAttempt

	Resumed       bool `json:"resumed"`
	CanSubmit     bool `json:"can_submit"`
	TimeRemaining int  `json:"time_remaining_seconds"`
	AnsweredCount int  `json:"answered_count"`
}

// AttemptQuestion is a question as served to the taker: persisted order
// position, no correct-answer flags.
type AttemptQuestion struct {
	Order        int               `json:"order"`
	QuestionID   uint              `json:"question_id"`
	QuestionText string            `json:"question_text"`
	ImageURL     *string           `json:"image_url"`
	Answers      []AttemptAnswer   `json:"answers"`
	Answered     bool              `json:"answered"`
}

type AttemptAnswer struct {
	ID         uint   `json:"id"`
	AnswerText string `json:"answer_text"`
}

type SubmitAnswerResponse struct {
	IsCorrect bool `json:"is_correct"`
	IsSkipped bool `json:"is_skipped"`
	// Set when the quiz is configured to reveal the correct answer.
	CorrectAnswerID *uint   `json:"correct_answer_id,omitempty"`
	Explanation     *string `json:"explanation,omitempty"`

	// Attempt state after this submission.
	Status        models.AttemptStatus `json:"status"`
	FailureReason models.FailureReason `json:"failure_reason"`
	AnsweredCount int                  `json:"answered_count"`
	TotalQuestions int                 `json:"total_questions"`
}

type AttemptResult struct {
	AttemptID       uint                 `json:"attempt_id"`
	QuizID          uint                 `json:"quiz_id"`
	Mode            string               `json:"mode"`
	Status          models.AttemptStatus `json:"status"`
	FailureReason   models.FailureReason `json:"failure_reason"`
	TotalQuestions  int                  `json:"total_questions"`
	CorrectAnswers  int                  `json:"correct_answers"`
	IncorrectAnswers int                 `json:"incorrect_answers"`
	SkippedQuestions int                 `json:"skipped_questions"`
	ScorePercentage float64              `json:"score_percentage"`
	Passed          bool                 `json:"passed"`
	StartedAt       time.Time            `json:"started_at"`
	CompletedAt     *time.Time           `json:"completed_at"`
}
