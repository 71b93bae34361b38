package dto

import "github.com/destinpq/destinpq-lms-sub000/internal/app/models"

// CreateAchievementRequest creates an achievement.
type CreateAchievementRequest struct {
	Title       string                 `json:"title" binding:"required,max=200" example:"First Workshop"`
	Description string                 `json:"description"`
	Type        models.AchievementType `json:"type" binding:"omitempty,achievement_type" example:"BADGE"`
	Icon        string                 `json:"icon" binding:"max=100" example:"star"`
}

// UpdateAchievementRequest partially updates an achievement.
type UpdateAchievementRequest struct {
	Title       *string                 `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string                 `json:"description"`
	Type        *models.AchievementType `json:"type" binding:"omitempty,achievement_type"`
	Icon        *string                 `json:"icon" binding:"omitempty,max=100"`
}
