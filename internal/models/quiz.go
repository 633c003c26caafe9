package models

import (
	"time"

	"gorm.io/gorm"
)

// QuizCategory groups questions into a named, orderable block.
type QuizCategory struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Order    int    `json:"order" gorm:"default:0;index"`
	IsActive bool   `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

// Quiz is the configuration entity for a named exam: sampling rules, time
// limit and error tolerance. Attempts snapshot these fields at creation, so
// editing a Quiz never changes in-flight or historical attempts.
type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// Exam-mode sampling configuration
	QuestionsPerCategory int `json:"questions_per_category" gorm:"default:5" validate:"min=0"`
	ExamTotalQuestions   int `json:"exam_total_questions" gorm:"default:20" validate:"min=0"`
	// Minutes; 0 disables the time limit.
	ExamTimeLimit int `json:"exam_time_limit" gorm:"default:0" validate:"min=0"`
	// 0 is the "unlimited" sentinel, not zero tolerance.
	ExamAllowedIncorrect int `json:"exam_allowed_incorrect" gorm:"default:0" validate:"min=0"`

	RandomOrder       bool `json:"random_order" gorm:"default:true"`
	ShowCorrectAnswer bool `json:"show_correct_answer" gorm:"default:false"`
	AllowSkip         bool `json:"allow_skip" gorm:"default:true"`

	IsActive bool `json:"is_active" gorm:"default:true;index"`

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Categories    []QuizCategory      `json:"categories,omitempty" gorm:"many2many:quiz_category_orders"`
	CategoryLinks []QuizCategoryOrder `json:"-" gorm:"foreignKey:QuizID"`
	// Empty set means the quiz is open to all users.
	AssignedUsers []User `json:"assigned_users,omitempty" gorm:"many2many:quiz_assigned_users"`
}

// QuizCategoryOrder is the ordered join between a quiz and its categories.
// The order drives the deterministic category priority used when the exam
// question budget is scarce.
type QuizCategoryOrder struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuizID     uint `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_category"`
	CategoryID uint `json:"category_id" gorm:"not null;uniqueIndex:idx_quiz_category"`
	Order      int  `json:"order" gorm:"default:0"`

	Quiz     Quiz         `json:"-" gorm:"foreignKey:QuizID"`
	Category QuizCategory `json:"category" gorm:"foreignKey:CategoryID"`
}

// Limits returns the limits an attempt snapshots at creation time.
func (q *Quiz) Limits() AttemptLimits {
	return AttemptLimits{
		TimeLimitSeconds:        q.ExamTimeLimit * 60,
		AllowedIncorrectAnswers: q.ExamAllowedIncorrect,
		MaxQuestions:            q.ExamTotalQuestions,
	}
}

// IsAssignedTo reports whether the user may take the quiz. An empty
// assignment set leaves the quiz open to everyone.
func (q *Quiz) IsAssignedTo(userID string) bool {
	if len(q.AssignedUsers) == 0 {
		return true
	}
	for _, u := range q.AssignedUsers {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (QuizCategory) TableName() string {
	return "quiz_categories"
}

func (QuizCategoryOrder) TableName() string {
	return "quiz_category_orders"
}
