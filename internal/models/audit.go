package models

import (
	"time"

	"gorm.io/datatypes"
)

type AccessEventType string

const (
	AccessDenied     AccessEventType = "access_denied"
	TokenModeEntered AccessEventType = "token_mode_entered"
	TokenModeLeft    AccessEventType = "token_mode_left"
)

// AccessDenialEvent is the persisted trail of the exam-host admission gate.
// Every rejection is recorded here in addition to the structured log line.
type AccessDenialEvent struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	EventType AccessEventType `json:"event_type" gorm:"not null;index;default:access_denied"`

	// Request context
	IPAddress string `json:"ip_address" gorm:"size:45;not null"`
	Path      string `json:"path" gorm:"size:500;not null"`
	Method    string `json:"method" gorm:"size:10;not null"`
	UserAgent string `json:"user_agent" gorm:"type:text"`

	// Actor; empty for anonymous requests.
	UserID string `json:"user_id" gorm:"size:255;index"`

	Reason string `json:"reason" gorm:"size:200;not null"`

	// Additional context (session id, token mode flag, matched rule).
	Context datatypes.JSON `json:"context" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AccessDenialEvent) TableName() string {
	return "access_denial_events"
}
