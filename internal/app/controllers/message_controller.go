package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// MessageController handles direct and workshop messages
type MessageController struct {
	messageService services.MessageService
	logger         zerolog.Logger
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService services.MessageService, logger zerolog.Logger) *MessageController {
	return &MessageController{
		messageService: messageService,
		logger:         logger,
	}
}

// SendDirect sends a direct message
// @Summary Send message
// @Description Connected recipients also receive the message over the websocket.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.Message}
// @Failure 400 {object} dto.ErrorResponse "Empty content or messaging yourself"
// @Failure 404 {object} dto.ErrorResponse "Recipient not found"
// @Router /messages [post]
func (c *MessageController) SendDirect(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !bindJSON(ctx, &req) {
		return
	}

	msg, err := c.messageService.SendDirect(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg, "Message sent"))
}

// SendToWorkshop posts to a workshop's attendees
// @Summary Send workshop message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param request body dto.SendGroupMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.Message}
// @Failure 403 {object} dto.ErrorResponse "Not an attendee"
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /workshops/{id}/messages [post]
func (c *MessageController) SendToWorkshop(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	var req dto.SendGroupMessageRequest
	if !bindJSON(ctx, &req) {
		return
	}

	msg, err := c.messageService.SendToWorkshop(ctx.Request.Context(), userID, workshopID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg, "Message sent"))
}

// WorkshopMessages lists a workshop's messages
// @Summary List workshop messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Message}
// @Failure 403 {object} dto.ErrorResponse "Not an attendee"
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /workshops/{id}/messages [get]
func (c *MessageController) WorkshopMessages(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}

	msgs, err := c.messageService.WorkshopMessages(ctx.Request.Context(), userID, workshopID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msgs, ""))
}

func (c *MessageController) listFilter(ctx *gin.Context) (dto.MessageListFilter, bool) {
	unread, ok := queryBool(ctx, "unread")
	if !ok {
		return dto.MessageListFilter{}, false
	}
	page, size := helpers.ParsePaginationParams(ctx)
	return dto.MessageListFilter{
		UnreadOnly: unread != nil && *unread,
		Page:       page,
		Size:       size,
	}, true
}

// Inbox lists received direct messages, newest first
// @Summary Inbox
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread messages"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Message}}
// @Router /messages/inbox [get]
func (c *MessageController) Inbox(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	filter, ok := c.listFilter(ctx)
	if !ok {
		return
	}

	result, err := c.messageService.Inbox(ctx.Request.Context(), userID, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// Sent lists sent direct messages, newest first
// @Summary Sent messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Message}}
// @Router /messages/sent [get]
func (c *MessageController) Sent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	filter, ok := c.listFilter(ctx)
	if !ok {
		return
	}

	result, err := c.messageService.Sent(ctx.Request.Context(), userID, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// Conversation lists direct messages between the caller and another user
// @Summary Conversation
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Other user ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Message}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /messages/conversations/{userId} [get]
func (c *MessageController) Conversation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	otherID, ok := parseIDParam(ctx, "userId", "User")
	if !ok {
		return
	}

	msgs, err := c.messageService.Conversation(ctx.Request.Context(), userID, otherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msgs, ""))
}

// UnreadCount counts unread direct messages
// @Summary Unread count
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UnreadCountResponse}
// @Router /messages/unread-count [get]
func (c *MessageController) UnreadCount(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	n, err := c.messageService.UnreadCount(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.UnreadCountResponse{Unread: n}, ""))
}

// MarkRead marks a received message read
// @Summary Mark message read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=models.Message}
// @Failure 403 {object} dto.ErrorResponse "Not the recipient"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /messages/{id}/read [put]
func (c *MessageController) MarkRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Message")
	if !ok {
		return
	}

	msg, err := c.messageService.MarkRead(ctx.Request.Context(), userID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msg, ""))
}

// Delete deletes a message
// @Summary Delete message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Not the sender"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /messages/{id} [delete]
func (c *MessageController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Message")
	if !ok {
		return
	}

	if err := c.messageService.Delete(ctx.Request.Context(), userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Debug().Int64("messageID", id).Int64("userID", userID).Msg("Message deleted")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Message deleted"))
}
