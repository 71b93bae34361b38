package models

import "time"

// Message is either a direct message (RecipientID set) or a workshop group
// message (WorkshopID set). Never both.
type Message struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	SenderID    int64      `json:"senderId" db:"sender_id" example:"2"`
	SenderName  string     `json:"senderName,omitempty" example:"Dr. Jane Smith"`
	RecipientID *int64     `json:"recipientId,omitempty" db:"recipient_id" example:"3"`
	WorkshopID  *int64     `json:"workshopId,omitempty" db:"workshop_id"`
	Content     string     `json:"content" db:"content" example:"See you on Monday"`
	IsRead      bool       `json:"isRead" db:"is_read" example:"false"`
	ReadAt      *time.Time `json:"readAt,omitempty" db:"read_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}
