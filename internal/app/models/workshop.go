package models

import "time"

// Workshop is a scheduled, instructor-led programme with an attendee roster.
type Workshop struct {
	ID              int64              `json:"id" db:"id" example:"1"`
	Title           string             `json:"title" db:"title" example:"Mindfulness for Anxiety"`
	Description     string             `json:"description" db:"description"`
	Instructor      string             `json:"instructor" db:"instructor" example:"Dr. Jane Smith"`
	ScheduledAt     *time.Time         `json:"scheduledAt,omitempty" db:"scheduled_at"`
	StartDate       *time.Time         `json:"startDate,omitempty" db:"start_date"`
	EndDate         *time.Time         `json:"endDate,omitempty" db:"end_date"`
	DurationWeeks   int                `json:"durationWeeks" db:"duration_weeks" example:"6"`
	MaxParticipants *int               `json:"maxParticipants,omitempty" db:"max_participants" example:"20"`
	IsActive        bool               `json:"isActive" db:"is_active" example:"true"`
	MeetingURL      *string            `json:"meetingUrl,omitempty" db:"meeting_url"`
	AttendeeCount   int                `json:"attendeeCount" example:"8"`
	CreatedAt       time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" db:"updated_at"`
	Sessions        []*WorkshopSession `json:"sessions,omitempty"`
}

// WorkshopSession is one meeting occurrence of a workshop.
type WorkshopSession struct {
	ID              int64      `json:"id" db:"id" example:"5"`
	WorkshopID      int64      `json:"workshopId" db:"workshop_id" example:"1"`
	Title           string     `json:"title" db:"title" example:"Week 1: Breathing"`
	StartsAt        time.Time  `json:"startsAt" db:"starts_at"`
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes" example:"60"`
	MeetingID       *string    `json:"meetingId,omitempty" db:"meeting_id" example:"85746065432"`
	JoinURL         *string    `json:"joinUrl,omitempty" db:"join_url"`
	ReminderSentAt  *time.Time `json:"reminderSentAt,omitempty" db:"reminder_sent_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}
