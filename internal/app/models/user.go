package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Name        string     `json:"name" db:"name" example:"Ada Lovelace"`
	Email       string     `json:"email" db:"email" example:"ada@example.com"`
	Password    string     `json:"-" db:"password"`
	IsAdmin     bool       `json:"isAdmin" db:"is_admin" example:"false"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" example:"2025-04-20T18:00:00Z"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" example:"2025-01-01T10:00:00Z"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at" example:"2025-01-02T15:30:00Z"`
}
