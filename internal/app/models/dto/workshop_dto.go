package dto

import "time"

// CreateWorkshopRequest creates a workshop.
type CreateWorkshopRequest struct {
	Title           string     `json:"title" binding:"required,max=200" example:"Mindfulness for Anxiety"`
	Description     string     `json:"description"`
	Instructor      string     `json:"instructor" binding:"max=120" example:"Dr. Jane Smith"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	DurationWeeks   int        `json:"durationWeeks" binding:"min=0" example:"6"`
	MaxParticipants *int       `json:"maxParticipants" binding:"omitempty,min=0" example:"20"`
	IsActive        *bool      `json:"isActive" example:"true"`
	MeetingURL      *string    `json:"meetingUrl" binding:"omitempty,url"`
}

// UpdateWorkshopRequest partially updates a workshop.
type UpdateWorkshopRequest struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string    `json:"description"`
	Instructor      *string    `json:"instructor" binding:"omitempty,max=120"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	DurationWeeks   *int       `json:"durationWeeks" binding:"omitempty,min=0"`
	MaxParticipants *int       `json:"maxParticipants" binding:"omitempty,min=0"`
	IsActive        *bool      `json:"isActive"`
	MeetingURL      *string    `json:"meetingUrl" binding:"omitempty,url"`
}

// CreateSessionRequest schedules a workshop session.
type CreateSessionRequest struct {
	Title           string    `json:"title" binding:"required,max=200" example:"Week 1: Breathing"`
	StartsAt        time.Time `json:"startsAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"omitempty,min=1,max=1440" example:"60"`
}

// UpdateSessionRequest partially updates a session.
type UpdateSessionRequest struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=200"`
	StartsAt        *time.Time `json:"startsAt"`
	DurationMinutes *int       `json:"durationMinutes" binding:"omitempty,min=1,max=1440"`
}

// WorkshopListFilter narrows workshop listings.
type WorkshopListFilter struct {
	Active *bool
	Page   int
	Size   int
}

// MeetingSignatureResponse carries what a web client needs to join a session.
type MeetingSignatureResponse struct {
	Signature     string `json:"signature"`
	MeetingNumber string `json:"meetingNumber" example:"85746065432"`
	Role          int    `json:"role" example:"0"`
	SDKKey        string `json:"sdkKey"`
	JoinURL       string `json:"joinUrl,omitempty"`
}
