package dto

// SendMessageRequest sends a direct message.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipientId" binding:"required,min=1" example:"3"`
	Content     string `json:"content" binding:"required,max=5000" example:"See you on Monday"`
}

// SendGroupMessageRequest posts to a workshop's attendees.
type SendGroupMessageRequest struct {
	Content string `json:"content" binding:"required,max=5000" example:"Slides are uploaded"`
}

// UnreadCountResponse is returned by the unread counter endpoint.
type UnreadCountResponse struct {
	Unread int64 `json:"unread" example:"4"`
}

// MessageListFilter narrows inbox, sent and conversation listings.
type MessageListFilter struct {
	UnreadOnly bool
	Page       int
	Size       int
}
