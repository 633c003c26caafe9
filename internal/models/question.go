package models

import (
	"time"

	"gorm.io/gorm"
)

// Question belongs to exactly one category.
type Question struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	CategoryID uint `json:"category_id" gorm:"not null;index"`

	QuestionText string  `json:"question_text" gorm:"type:text;not null" validate:"required,min=1"`
	ImageURL     *string `json:"image_url" gorm:"size:500"`
	Explanation  *string `json:"explanation" gorm:"type:text" validate:"omitempty,max=2000"`
	Order        int     `json:"order" gorm:"default:0;index"`
	IsActive     bool    `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Category QuizCategory `json:"-" gorm:"foreignKey:CategoryID"`
	Answers  []Answer     `json:"answers,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// Answer is one selectable option of a question. A question without any
// correct answer grades every selection as incorrect.
type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	AnswerText string `json:"answer_text" gorm:"type:text;not null" validate:"required,min=1"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Order      int    `json:"order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

// CorrectAnswer returns the first answer flagged correct, or nil.
func (q *Question) CorrectAnswer() *Answer {
	for i := range q.Answers {
		if q.Answers[i].IsCorrect {
			return &q.Answers[i]
		}
	}
	return nil
}

func (Question) TableName() string {
	return "questions"
}

func (Answer) TableName() string {
	return "answers"
}
