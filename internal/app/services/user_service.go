package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/validation"
)

// UserService defines the interface for user operations
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error
	GetPublicProfile(ctx context.Context, id int64) (*dto.PublicProfile, error)

	ListUsers(ctx context.Context, filter dto.UserListFilter) (*dto.PaginatedResponse, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo  repositories.IUserRepository
	tokenRepo repositories.ITokenRepository
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.IUserRepository, tokenRepo repositories.ITokenRepository, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the caller's name and email.
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.applyIdentity(ctx, user, &req.Name, &req.Email); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password and revokes every refresh
// token of the user.
func (s *userServiceImpl) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	hash, err := s.userRepo.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(hash, req.CurrentPassword) {
		return apperrors.ErrInvalidCredentials
	}
	if !validation.ValidPassword(req.NewPassword) {
		return apperrors.NewValidationError("newPassword", "password must be 8-72 characters and contain at least one letter and one digit")
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}

	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke refresh tokens after password change")
	}
	s.logger.Info().Int64("userID", userID).Msg("Password changed")
	return nil
}

func (s *userServiceImpl) GetPublicProfile(ctx context.Context, id int64) (*dto.PublicProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PublicProfile{
		ID:        user.ID,
		Name:      user.Name,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context, filter dto.UserListFilter) (*dto.PaginatedResponse, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := helpers.NewPaginatedResponse(users, total, filter.Page, filter.Size)
	return &page, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	mail := validation.NormalizeEmail(req.Email)
	if err := validateCredentials(name, mail, req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    mail,
		Password: hash,
		IsAdmin:  req.IsAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Password = ""

	s.logger.Info().Int64("userID", user.ID).Bool("isAdmin", user.IsAdmin).Msg("User created by admin")
	return user, nil
}

// UpdateUser applies only the fields present in req.
func (s *userServiceImpl) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyIdentity(ctx, user, req.Name, req.Email); err != nil {
		return nil, err
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if req.Password != nil {
		if !validation.ValidPassword(*req.Password) {
			return nil, apperrors.NewValidationError("password", "password must be 8-72 characters and contain at least one letter and one digit")
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, id); err != nil {
			s.logger.Warn().Err(err).Int64("userID", id).Msg("Failed to revoke refresh tokens")
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", id).Msg("User deleted")
	return nil
}

// applyIdentity validates and applies a name and email change. Nil leaves
// the field untouched.
func (s *userServiceImpl) applyIdentity(ctx context.Context, user *models.User, name, mail *string) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if !validation.ValidName(n) {
			return apperrors.NewValidationError("name", "name must be between 2 and 120 characters")
		}
		user.Name = n
	}

	if mail != nil {
		m := validation.NormalizeEmail(*mail)
		if !validation.ValidEmail(m) {
			return apperrors.NewValidationError("email", "invalid email format")
		}
		if m != user.Email {
			exists, err := s.userRepo.EmailExists(ctx, m)
			if err != nil {
				return fmt.Errorf("error checking if email exists: %w", err)
			}
			if exists {
				return apperrors.ErrEmailAlreadyExists
			}
			user.Email = m
		}
	}
	return nil
}
