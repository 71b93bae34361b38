package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// AchievementService manages the achievement catalogue and awards.
type AchievementService interface {
	ListAchievements(ctx context.Context) ([]*models.Achievement, error)
	ListMyAchievements(ctx context.Context, userID int64) ([]*models.Achievement, error)
	GetAchievement(ctx context.Context, id int64) (*models.Achievement, error)
	CreateAchievement(ctx context.Context, req *dto.CreateAchievementRequest) (*models.Achievement, error)
	UpdateAchievement(ctx context.Context, id int64, req *dto.UpdateAchievementRequest) (*models.Achievement, error)
	DeleteAchievement(ctx context.Context, id int64) error
	Award(ctx context.Context, achievementID, userID int64) (*dto.MembershipResponse, error)
	Revoke(ctx context.Context, achievementID, userID int64) (*dto.MembershipResponse, error)
	ListHolders(ctx context.Context, achievementID int64) ([]*models.Member, error)
}

type achievementServiceImpl struct {
	achievementRepo repositories.IAchievementRepository
	userRepo        repositories.IUserRepository
	logger          zerolog.Logger
}

// NewAchievementService creates a new AchievementService
func NewAchievementService(achievementRepo repositories.IAchievementRepository, userRepo repositories.IUserRepository, logger zerolog.Logger) AchievementService {
	return &achievementServiceImpl{
		achievementRepo: achievementRepo,
		userRepo:        userRepo,
		logger:          logger,
	}
}

func (s *achievementServiceImpl) ListAchievements(ctx context.Context) ([]*models.Achievement, error) {
	return s.achievementRepo.List(ctx)
}

func (s *achievementServiceImpl) ListMyAchievements(ctx context.Context, userID int64) ([]*models.Achievement, error) {
	return s.achievementRepo.ListByUser(ctx, userID)
}

func (s *achievementServiceImpl) GetAchievement(ctx context.Context, id int64) (*models.Achievement, error) {
	return s.achievementRepo.GetByID(ctx, id)
}

func (s *achievementServiceImpl) CreateAchievement(ctx context.Context, req *dto.CreateAchievementRequest) (*models.Achievement, error) {
	a := &models.Achievement{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		Icon:        strings.TrimSpace(req.Icon),
	}
	if a.Type == "" {
		a.Type = models.AchievementBadge
	}
	if err := validateAchievement(a); err != nil {
		return nil, err
	}
	if err := s.achievementRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *achievementServiceImpl) UpdateAchievement(ctx context.Context, id int64, req *dto.UpdateAchievementRequest) (*models.Achievement, error) {
	a, err := s.achievementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Type != nil {
		a.Type = *req.Type
	}
	if req.Icon != nil {
		a.Icon = strings.TrimSpace(*req.Icon)
	}
	if err := validateAchievement(a); err != nil {
		return nil, err
	}
	if err := s.achievementRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *achievementServiceImpl) DeleteAchievement(ctx context.Context, id int64) error {
	return s.achievementRepo.Delete(ctx, id)
}

// Award is idempotent: awarding twice keeps a single award.
func (s *achievementServiceImpl) Award(ctx context.Context, achievementID, userID int64) (*dto.MembershipResponse, error) {
	added, err := s.achievementRepo.Award(ctx, achievementID, userID)
	if err != nil {
		return nil, err
	}
	holders, err := s.achievementRepo.ListHolders(ctx, achievementID)
	if err != nil {
		return nil, err
	}
	if added {
		s.logger.Info().Int64("achievementID", achievementID).Int64("userID", userID).Msg("Achievement awarded")
	}
	return membership(userID, added, len(holders)), nil
}

func (s *achievementServiceImpl) Revoke(ctx context.Context, achievementID, userID int64) (*dto.MembershipResponse, error) {
	if _, err := s.achievementRepo.GetByID(ctx, achievementID); err != nil {
		return nil, err
	}
	removed, err := s.achievementRepo.Revoke(ctx, achievementID, userID)
	if err != nil {
		return nil, err
	}
	holders, err := s.achievementRepo.ListHolders(ctx, achievementID)
	if err != nil {
		return nil, err
	}
	return membership(userID, removed, len(holders)), nil
}

func (s *achievementServiceImpl) ListHolders(ctx context.Context, achievementID int64) ([]*models.Member, error) {
	if _, err := s.achievementRepo.GetByID(ctx, achievementID); err != nil {
		return nil, err
	}
	return s.achievementRepo.ListHolders(ctx, achievementID)
}

func validateAchievement(a *models.Achievement) error {
	if a.Title == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if !a.Type.Valid() {
		return apperrors.NewValidationError("type", "type must be one of BADGE, CERTIFICATE, MILESTONE")
	}
	return nil
}
