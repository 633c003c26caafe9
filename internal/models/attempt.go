package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// IsTerminal reports whether no further transition is allowed.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned
}

type FailureReason string

const (
	FailureNone           FailureReason = "none"
	FailureTimeout        FailureReason = "timeout"
	FailureIncorrectLimit FailureReason = "incorrect_limit"
)

// AttemptMode discriminates a full exam from single-category training.
type AttemptMode struct {
	CategoryID *uint
}

func ExamMode() AttemptMode {
	return AttemptMode{}
}

func TrainingMode(categoryID uint) AttemptMode {
	return AttemptMode{CategoryID: &categoryID}
}

func (m AttemptMode) IsExam() bool {
	return m.CategoryID == nil
}

func (m AttemptMode) IsTraining() bool {
	return m.CategoryID != nil
}

// AttemptLimits is the immutable snapshot of quiz limits taken when the
// attempt is created. It is never re-read from the live quiz row.
type AttemptLimits struct {
	// Seconds; 0 disables the time limit.
	TimeLimitSeconds int `json:"time_limit_seconds" gorm:"default:0"`
	// 0 means unlimited.
	AllowedIncorrectAnswers int `json:"allowed_incorrect_answers" gorm:"default:0"`
	MaxQuestions            int `json:"max_questions" gorm:"default:0"`
}

// QuizAttempt tracks one user's run through a quiz. Counters and derived
// fields are mutated only by the attempt's own answer-submission and
// finalization operations.
type QuizAttempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index"`
	UserID string `json:"user_id" gorm:"not null;size:255;index"`
	// Non-null means category training, null means full exam.
	CategoryID *uint `json:"category_id" gorm:"index"`

	Status AttemptStatus `json:"status" gorm:"not null;default:in_progress;index" validate:"omitempty,oneof=in_progress completed abandoned"`

	// Counters
	TotalQuestions   int `json:"total_questions" gorm:"default:0"`
	CorrectAnswers   int `json:"correct_answers" gorm:"default:0"`
	IncorrectAnswers int `json:"incorrect_answers" gorm:"default:0"`
	SkippedQuestions int `json:"skipped_questions" gorm:"default:0"`

	// Derived on finalization
	ScorePercentage float64       `json:"score_percentage" gorm:"default:0"`
	Passed          bool          `json:"passed" gorm:"default:false"`
	FailureReason   FailureReason `json:"failure_reason" gorm:"not null;default:none"`

	Limits AttemptLimits `json:"limits" gorm:"embedded"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz     Quiz          `json:"-" gorm:"foreignKey:QuizID"`
	Category *QuizCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Answers  []UserAnswer  `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
	Ordering []QuizQuestionOrder `json:"-" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

// Mode returns the attempt's mode as a first-class value.
func (a *QuizAttempt) Mode() AttemptMode {
	if a.CategoryID != nil {
		return TrainingMode(*a.CategoryID)
	}
	return ExamMode()
}

// AnsweredCount is the number of recorded answers, skips included.
func (a *QuizAttempt) AnsweredCount() int {
	return a.CorrectAnswers + a.IncorrectAnswers + a.SkippedQuestions
}

// TimeExpired reports whether the wall-clock limit has elapsed at now.
func (a *QuizAttempt) TimeExpired(now time.Time) bool {
	if a.Limits.TimeLimitSeconds <= 0 {
		return false
	}
	return now.Sub(a.StartedAt) >= time.Duration(a.Limits.TimeLimitSeconds)*time.Second
}

// IncorrectLimitBreached reports whether the incorrect-answer tolerance is
// exceeded. A limit of 0 means unlimited and never breaches.
func (a *QuizAttempt) IncorrectLimitBreached() bool {
	if a.Limits.AllowedIncorrectAnswers <= 0 {
		return false
	}
	return a.IncorrectAnswers > a.Limits.AllowedIncorrectAnswers
}

// UserAnswer records the outcome for one question of one attempt.
// The (attempt, question) uniqueness is the guard against double submission.
type UserAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	// Null means the question was skipped.
	SelectedAnswerID *uint `json:"selected_answer_id"`

	IsCorrect  bool      `json:"is_correct" gorm:"default:false"`
	IsSkipped  bool      `json:"is_skipped" gorm:"default:false"`
	AnsweredAt time.Time `json:"answered_at" gorm:"not null"`

	Attempt        QuizAttempt `json:"-" gorm:"foreignKey:AttemptID"`
	Question       Question    `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedAnswer *Answer     `json:"selected_answer,omitempty" gorm:"foreignKey:SelectedAnswerID"`
}

// QuizQuestionOrder pins the question sequence assigned to an attempt so a
// resumed attempt replays the identical order instead of re-sampling.
type QuizQuestionOrder struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_order,priority:1;uniqueIndex:idx_attempt_question_once,priority:1"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question_once,priority:2"`
	// 0-based position in the attempt's sequence.
	Order int `json:"order" gorm:"not null;uniqueIndex:idx_attempt_order,priority:2"`

	Attempt  QuizAttempt `json:"-" gorm:"foreignKey:AttemptID"`
	Question Question    `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (UserAnswer) TableName() string {
	return "user_answers"
}

func (QuizQuestionOrder) TableName() string {
	return "quiz_question_orders"
}
