package dto

import "time"

// UpdateProfileRequest updates the caller's own profile.
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=120" example:"Ada Lovelace"`
	Email string `json:"email" binding:"required,email" example:"ada@example.com"`
}

// ChangePasswordRequest changes the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// CreateUserRequest is the admin user creation payload.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UpdateUserRequest is the admin partial update payload.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=120"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// PublicProfile is what any authenticated user may see about another user.
type PublicProfile struct {
	ID        int64     `json:"id" example:"3"`
	Name      string    `json:"name" example:"Ada Lovelace"`
	IsAdmin   bool      `json:"isAdmin" example:"false"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserListFilter narrows the admin user listing.
type UserListFilter struct {
	Query string
	Page  int
	Size  int
}
