package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// MessagePublisher pushes a stored message to connected users.
type MessagePublisher interface {
	Publish(userIDs []int64, msg *models.Message)
}

type noopPublisher struct{}

func (noopPublisher) Publish([]int64, *models.Message) {}

// MessageService handles direct and workshop group messaging.
type MessageService interface {
	SendDirect(ctx context.Context, senderID int64, req *dto.SendMessageRequest) (*models.Message, error)
	SendToWorkshop(ctx context.Context, senderID, workshopID int64, req *dto.SendGroupMessageRequest) (*models.Message, error)
	Inbox(ctx context.Context, userID int64, filter dto.MessageListFilter) (*dto.PaginatedResponse, error)
	Sent(ctx context.Context, userID int64, filter dto.MessageListFilter) (*dto.PaginatedResponse, error)
	Conversation(ctx context.Context, userID, otherID int64) ([]*models.Message, error)
	WorkshopMessages(ctx context.Context, userID, workshopID int64) ([]*models.Message, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, messageID int64) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID int64) error
}

type messageServiceImpl struct {
	messageRepo  repositories.IMessageRepository
	userRepo     repositories.IUserRepository
	workshopRepo repositories.IWorkshopRepository
	publisher    MessagePublisher
	logger       zerolog.Logger
	now          func() time.Time
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo repositories.IMessageRepository,
	userRepo repositories.IUserRepository,
	workshopRepo repositories.IWorkshopRepository,
	publisher MessagePublisher,
	logger zerolog.Logger,
) MessageService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &messageServiceImpl{
		messageRepo:  messageRepo,
		userRepo:     userRepo,
		workshopRepo: workshopRepo,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *messageServiceImpl) SendDirect(ctx context.Context, senderID int64, req *dto.SendMessageRequest) (*models.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content cannot be empty")
	}
	if req.RecipientID == senderID {
		return nil, apperrors.NewBadRequestError("you cannot message yourself")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}

	recipient := req.RecipientID
	msg := &models.Message{
		SenderID:    senderID,
		SenderName:  sender.Name,
		RecipientID: &recipient,
		Content:     content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publisher.Publish([]int64{recipient}, msg)
	return msg, nil
}

// SendToWorkshop posts to every attendee. Only attendees and admins may post.
func (s *messageServiceImpl) SendToWorkshop(ctx context.Context, senderID, workshopID int64, req *dto.SendGroupMessageRequest) (*models.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content cannot be empty")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWorkshopAccess(ctx, sender, workshopID); err != nil {
		return nil, err
	}

	wid := workshopID
	msg := &models.Message{
		SenderID:   senderID,
		SenderName: sender.Name,
		WorkshopID: &wid,
		Content:    content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	attendees, err := s.workshopRepo.ListAttendees(ctx, workshopID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("workshopID", workshopID).Msg("Failed to list attendees for push")
		return msg, nil
	}
	ids := make([]int64, 0, len(attendees))
	for _, a := range attendees {
		if a.UserID != senderID {
			ids = append(ids, a.UserID)
		}
	}
	s.publisher.Publish(ids, msg)
	return msg, nil
}

func (s *messageServiceImpl) Inbox(ctx context.Context, userID int64, filter dto.MessageListFilter) (*dto.PaginatedResponse, error) {
	items, total, err := s.messageRepo.ListInbox(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	page := helpers.NewPaginatedResponse(items, total, filter.Page, filter.Size)
	return &page, nil
}

func (s *messageServiceImpl) Sent(ctx context.Context, userID int64, filter dto.MessageListFilter) (*dto.PaginatedResponse, error) {
	items, total, err := s.messageRepo.ListSent(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	page := helpers.NewPaginatedResponse(items, total, filter.Page, filter.Size)
	return &page, nil
}

func (s *messageServiceImpl) Conversation(ctx context.Context, userID, otherID int64) ([]*models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListConversation(ctx, userID, otherID)
}

func (s *messageServiceImpl) WorkshopMessages(ctx context.Context, userID, workshopID int64) ([]*models.Message, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWorkshopAccess(ctx, user, workshopID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListWorkshopMessages(ctx, workshopID)
}

func (s *messageServiceImpl) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.messageRepo.UnreadCount(ctx, userID)
}

// MarkRead is allowed for the direct recipient only.
func (s *messageServiceImpl) MarkRead(ctx context.Context, userID, messageID int64) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID == nil || *msg.RecipientID != userID {
		return nil, apperrors.NewForbiddenError("only the recipient can mark a message as read")
	}
	if msg.IsRead {
		return msg, nil
	}

	at := s.now()
	if err := s.messageRepo.MarkRead(ctx, messageID, at); err != nil {
		return nil, err
	}
	msg.IsRead = true
	msg.ReadAt = &at
	return msg, nil
}

// Delete is allowed for the sender and for admins.
func (s *messageServiceImpl) Delete(ctx context.Context, userID, messageID int64) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		admin, err := isAdmin(ctx, s.userRepo, userID)
		if err != nil {
			return err
		}
		if !admin {
			return apperrors.NewForbiddenError("only the sender can delete this message")
		}
	}
	return s.messageRepo.Delete(ctx, messageID)
}

func (s *messageServiceImpl) checkWorkshopAccess(ctx context.Context, user *models.User, workshopID int64) error {
	if _, err := s.workshopRepo.GetByID(ctx, workshopID); err != nil {
		return err
	}
	if user.IsAdmin {
		return nil
	}
	attendee, err := s.workshopRepo.IsAttendee(ctx, workshopID, user.ID)
	if err != nil {
		return err
	}
	if !attendee {
		return apperrors.NewForbiddenError("only workshop attendees can access its messages")
	}
	return nil
}
