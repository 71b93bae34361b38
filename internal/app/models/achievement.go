package models

import "time"

// Achievement is a badge, certificate or milestone users can earn.
type Achievement struct {
	ID          int64           `json:"id" db:"id" example:"1"`
	Title       string          `json:"title" db:"title" example:"First Workshop"`
	Description string          `json:"description" db:"description"`
	Type        AchievementType `json:"type" db:"type" example:"BADGE"`
	Icon        string          `json:"icon" db:"icon" example:"star"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
	// AwardedAt is set when the achievement is listed for a specific user.
	AwardedAt *time.Time `json:"awardedAt,omitempty"`
}
