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

// WorkshopController handles workshops, their sessions and participants
type WorkshopController struct {
	workshopService services.WorkshopService
	logger          zerolog.Logger
}

// NewWorkshopController creates a new WorkshopController
func NewWorkshopController(workshopService services.WorkshopService, logger zerolog.Logger) *WorkshopController {
	return &WorkshopController{
		workshopService: workshopService,
		logger:          logger,
	}
}

// ListWorkshops lists workshops
// @Summary List workshops
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active or only inactive workshops"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Workshop}}
// @Router /workshops [get]
func (c *WorkshopController) ListWorkshops(ctx *gin.Context) {
	active, ok := queryBool(ctx, "active")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.workshopService.ListWorkshops(ctx.Request.Context(), dto.WorkshopListFilter{
		Active: active,
		Page:   page,
		Size:   size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// GetWorkshop returns a workshop with its sessions
// @Summary Get workshop
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Success 200 {object} dto.APIResponse{data=models.Workshop}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /workshops/{id} [get]
func (c *WorkshopController) GetWorkshop(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}

	workshop, err := c.workshopService.GetWorkshop(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(workshop, ""))
}

// ListMyWorkshops lists workshops the caller attends
// @Summary List my workshops
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Workshop}
// @Router /workshops/my [get]
func (c *WorkshopController) ListMyWorkshops(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	workshops, err := c.workshopService.ListMyWorkshops(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(workshops, ""))
}

// Attend adds the caller to a workshop
// @Summary Attend workshop
// @Description Idempotent. A confirmation email is sent only when the caller was newly added.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Failure 409 {object} dto.ErrorResponse "Workshop is inactive or full"
// @Router /workshops/{id}/attend [post]
func (c *WorkshopController) Attend(ctx *gin.Context) {
	selfMembership(ctx, "Workshop", c.workshopService.Attend)
}

// Leave removes the caller from a workshop
// @Summary Leave workshop
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /workshops/{id}/attend [delete]
func (c *WorkshopController) Leave(ctx *gin.Context) {
	selfMembership(ctx, "Workshop", c.workshopService.Leave)
}

// MeetingSignature returns what a client needs to join a session's meeting
// @Summary Get meeting signature
// @Description Attendees join as participants (role 0), administrators as hosts (role 1).
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param sessionId path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=dto.MeetingSignatureResponse}
// @Failure 403 {object} dto.ErrorResponse "Not an attendee"
// @Failure 404 {object} dto.ErrorResponse "Workshop or session not found"
// @Failure 409 {object} dto.ErrorResponse "Session has no meeting yet"
// @Failure 503 {object} dto.ErrorResponse "Meeting provider not configured"
// @Router /workshops/{id}/sessions/{sessionId}/signature [get]
func (c *WorkshopController) MeetingSignature(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId", "Session")
	if !ok {
		return
	}

	sig, err := c.workshopService.MeetingSignature(ctx.Request.Context(), workshopID, sessionID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(sig, ""))
}

// CreateWorkshop creates a workshop
// @Summary Create workshop
// @Tags admin-workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateWorkshopRequest true "Workshop"
// @Success 201 {object} dto.APIResponse{data=models.Workshop}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Router /admin/workshops [post]
func (c *WorkshopController) CreateWorkshop(ctx *gin.Context) {
	var req dto.CreateWorkshopRequest
	if !bindJSON(ctx, &req) {
		return
	}

	workshop, err := c.workshopService.CreateWorkshop(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(workshop, "Workshop created successfully"))
}

// UpdateWorkshop updates a workshop
// @Summary Update workshop
// @Tags admin-workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param request body dto.UpdateWorkshopRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Workshop}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /admin/workshops/{id} [put]
func (c *WorkshopController) UpdateWorkshop(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	var req dto.UpdateWorkshopRequest
	if !bindJSON(ctx, &req) {
		return
	}

	workshop, err := c.workshopService.UpdateWorkshop(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(workshop, "Workshop updated successfully"))
}

// DeleteWorkshop deletes a workshop
// @Summary Delete workshop
// @Tags admin-workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /admin/workshops/{id} [delete]
func (c *WorkshopController) DeleteWorkshop(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}

	if err := c.workshopService.DeleteWorkshop(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("workshopID", id).Msg("Workshop deleted")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Workshop deleted successfully"))
}

// ListParticipants lists a workshop's attendees
// @Summary List participants
// @Tags admin-workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Member}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /admin/workshops/{id}/participants [get]
func (c *WorkshopController) ListParticipants(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}

	members, err := c.workshopService.ListParticipants(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members, ""))
}

// AddParticipant adds a user to a workshop
// @Summary Add participant
// @Description Idempotent. Ignores the active flag but respects capacity.
// @Tags admin-workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param request body dto.AddMemberRequest true "User to add"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Workshop or user not found"
// @Failure 409 {object} dto.ErrorResponse "Workshop is full"
// @Router /admin/workshops/{id}/participants [post]
func (c *WorkshopController) AddParticipant(ctx *gin.Context) {
	addMember(ctx, "Workshop", c.workshopService.AddParticipant)
}

// RemoveParticipant removes a user from a workshop
// @Summary Remove participant
// @Tags admin-workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param userId path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /admin/workshops/{id}/participants/{userId} [delete]
func (c *WorkshopController) RemoveParticipant(ctx *gin.Context) {
	removeMember(ctx, "Workshop", c.workshopService.RemoveParticipant)
}

// CreateSession schedules a session
// @Summary Create session
// @Tags admin-workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param request body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=models.WorkshopSession}
// @Failure 404 {object} dto.ErrorResponse "Workshop not found"
// @Router /admin/workshops/{id}/sessions [post]
func (c *WorkshopController) CreateSession(ctx *gin.Context) {
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	session, err := c.workshopService.CreateSession(ctx.Request.Context(), workshopID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(session, "Session created successfully"))
}

// UpdateSession updates a session. Moving its start time re-arms the reminder.
// @Summary Update session
// @Tags admin-workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param sessionId path int true "Session ID"
// @Param request body dto.UpdateSessionRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.WorkshopSession}
// @Failure 404 {object} dto.ErrorResponse "Workshop or session not found"
// @Router /admin/workshops/{id}/sessions/{sessionId} [put]
func (c *WorkshopController) UpdateSession(ctx *gin.Context) {
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId", "Session")
	if !ok {
		return
	}
	var req dto.UpdateSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	session, err := c.workshopService.UpdateSession(ctx.Request.Context(), workshopID, sessionID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session, "Session updated successfully"))
}

// DeleteSession deletes a session
// @Summary Delete session
// @Tags admin-workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param sessionId path int true "Session ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Workshop or session not found"
// @Router /admin/workshops/{id}/sessions/{sessionId} [delete]
func (c *WorkshopController) DeleteSession(ctx *gin.Context) {
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId", "Session")
	if !ok {
		return
	}

	if err := c.workshopService.DeleteSession(ctx.Request.Context(), workshopID, sessionID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Session deleted successfully"))
}

// CreateSessionMeeting creates the video meeting for a session
// @Summary Create session meeting
// @Tags admin-workshops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workshop ID"
// @Param sessionId path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.WorkshopSession}
// @Failure 404 {object} dto.ErrorResponse "Workshop or session not found"
// @Failure 502 {object} dto.ErrorResponse "Meeting provider error"
// @Failure 503 {object} dto.ErrorResponse "Meeting provider not configured"
// @Router /admin/workshops/{id}/sessions/{sessionId}/meeting [post]
func (c *WorkshopController) CreateSessionMeeting(ctx *gin.Context) {
	workshopID, ok := parseIDParam(ctx, "id", "Workshop")
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId", "Session")
	if !ok {
		return
	}

	session, err := c.workshopService.CreateSessionMeeting(ctx.Request.Context(), workshopID, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session, "Meeting created successfully"))
}
