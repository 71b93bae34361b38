package dto

import "github.com/destinpq/destinpq-lms-sub000/internal/app/models"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"student@lms.local"`
	Password string `json:"password" binding:"required" example:"student1234"`
}

// RegisterRequest creates a non-admin account. Passwords also need a letter
// and a digit, checked by the auth service.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120" example:"Priya Sharma"`
	Email    string `json:"email" binding:"required,email" example:"priya@example.com"`
	Password string `json:"password" binding:"required,min=8,max=72" example:"calm2breathe"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse carries the bearer pair. Expiry fields are in seconds.
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int    `json:"expiresIn" example:"3600"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int    `json:"refreshTokenExpiresIn,omitempty" example:"2592000"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *models.User  `json:"user"`
}
