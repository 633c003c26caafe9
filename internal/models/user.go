package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleIssuer   UserRole = "issuer"
	RoleAdmin    UserRole = "admin"
)

// User is the minimal identity record this service keeps. Authentication is
// handled by the surrounding portal; the engine only needs a stable ID for
// token scoping and attempt ownership.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:200"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;default:employee"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
