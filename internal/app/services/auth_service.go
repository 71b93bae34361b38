package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/validation"
)

// AuthService handles registration, login and refresh token rotation.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authServiceImpl struct {
	userRepo   repositories.IUserRepository
	tokenRepo  repositories.ITokenRepository
	jwtService *auth.JWTService
	notifier   email.Notifier
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	jwtService *auth.JWTService,
	notifier email.Notifier,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// validateCredentials checks the fields shared by registration and admin user creation.
func validateCredentials(name, mail, password string) error {
	if !validation.ValidName(name) {
		return apperrors.NewValidationError("name", "name must be between 2 and 120 characters")
	}
	if !validation.ValidEmail(mail) {
		return apperrors.NewValidationError("email", "invalid email format")
	}
	if !validation.ValidPassword(password) {
		return apperrors.NewValidationError("password", "password must be 8-72 characters and contain at least one letter and one digit")
	}
	return nil
}

// Register creates a regular user and signs them in.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	mail := validation.NormalizeEmail(req.Email)
	if err := validateCredentials(name, mail, req.Password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, mail)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    mail,
		Password: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Password = ""

	s.logger.Info().Int64("userID", user.ID).Msg("User registered")

	if s.notifier != nil {
		if err := s.notifier.Welcome(ctx, recipientOf(user)); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send welcome email")
		}
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmailWithPassword(ctx, validation.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Debug().Int64("userID", user.ID).Msg("Password mismatch")
		return nil, apperrors.ErrInvalidCredentials
	}
	user.Password = ""

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login")
	} else {
		now := s.now()
		user.LastLoginAt = &now
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a
// new pair is issued.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, err := s.tokenRepo.RefreshTokenOwner(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if err := s.tokenRepo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokenRepo.RevokeRefreshToken(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrTokenNotFound) {
		return nil
	}
	return err
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.StoreRefreshToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}
