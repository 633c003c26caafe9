package models

import (
	"time"
)

// TokenRejection explains why a token was refused. The checks run in a fixed
// order and short-circuit on the first failure.
type TokenRejection string

const (
	TokenOK          TokenRejection = ""
	TokenDeactivated TokenRejection = "token deactivated"
	TokenAlreadyUsed TokenRejection = "token already used"
	TokenNotYetValid TokenRejection = "not yet active"
	TokenExpired     TokenRejection = "expired"
)

// QuizAccessToken is a time-boxed credential scoped to exactly one
// (quiz, user) pair that gates entry into the exam flow.
type QuizAccessToken struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Token string `json:"token" gorm:"not null;size:64;uniqueIndex"`

	QuizID uint   `json:"quiz_id" gorm:"not null;uniqueIndex:idx_token_quiz_user"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_token_quiz_user"`

	ValidFrom  time.Time `json:"valid_from" gorm:"not null"`
	ValidUntil time.Time `json:"valid_until" gorm:"not null"`

	IsUsed bool       `json:"is_used" gorm:"default:false"`
	UsedAt *time.Time `json:"used_at"`

	RequireLogin bool `json:"require_login" gorm:"default:true"`
	AllowResume  bool `json:"allow_resume" gorm:"default:true"`

	MaxAttempts     int `json:"max_attempts" gorm:"default:1" validate:"min=1"`
	CurrentAttempts int `json:"current_attempts" gorm:"default:0"`

	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedBy string    `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Quiz Quiz `json:"-" gorm:"foreignKey:QuizID"`
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// Validate evaluates the token gate at now. Order matters: deactivation,
// re-use, validity window start, validity window end.
func (t *QuizAccessToken) Validate(now time.Time) TokenRejection {
	if !t.IsActive {
		return TokenDeactivated
	}
	if t.IsUsed && !t.AllowResume {
		return TokenAlreadyUsed
	}
	if now.Before(t.ValidFrom) {
		return TokenNotYetValid
	}
	if now.After(t.ValidUntil) {
		return TokenExpired
	}
	return TokenOK
}

// IsValid reports whether the token passes all gate checks at now.
func (t *QuizAccessToken) IsValid(now time.Time) bool {
	return t.Validate(now) == TokenOK
}

// AttemptsExhausted reports whether a new attempt may no longer be created
// under this token. Resuming an in-progress attempt is not affected.
func (t *QuizAccessToken) AttemptsExhausted() bool {
	return t.CurrentAttempts >= t.MaxAttempts
}

func (QuizAccessToken) TableName() string {
	return "quiz_access_tokens"
}
