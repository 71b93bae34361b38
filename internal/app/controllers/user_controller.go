package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// UserController handles profile and user administration endpoints
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile retrieves the profile of authenticated user
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.User} "User profile retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/profile/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	user, err := c.userService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// UpdateProfile updates the user's profile information
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile update information"
// @Success 200 {object} dto.APIResponse{data=models.User} "Profile updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 409 {object} dto.ErrorResponse "Email already in use"
// @Router /users/profile/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "Profile updated successfully"))
}

// ChangePassword changes the caller's password
// @Summary Change own password
// @Description Verifies the current password, stores the new one and signs out every other session.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.APIResponse "Password changed"
// @Failure 400 {object} dto.ErrorResponse "Weak password"
// @Failure 401 {object} dto.ErrorResponse "Current password is wrong"
// @Router /users/profile/me/password [put]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.userService.ChangePassword(ctx.Request.Context(), userID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Password changed successfully"))
}

// GetPublicProfile returns another user's public profile
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.PublicProfile}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetPublicProfile(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	profile, err := c.userService.GetPublicProfile(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, ""))
}

// ListUsers lists users for administrators
// @Summary List users
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search in name and email"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.User}}
// @Failure 403 {object} dto.ErrorResponse "Administrator privileges are required"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	filter := dto.UserListFilter{
		Query: strings.TrimSpace(ctx.Query("q")),
		Page:  page,
		Size:  size,
	}

	result, err := c.userService.ListUsers(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// GetUser returns one user
// @Summary Get user
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// CreateUser creates a user
// @Summary Create user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "New user"
// @Success 201 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /admin/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", user.ID).Bool("isAdmin", user.IsAdmin).Msg("User created by admin")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(user, "User created successfully"))
}

// UpdateUser updates a user
// @Summary Update user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /admin/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "User updated successfully"))
}

// DeleteUser deletes a user and every membership they hold
// @Summary Delete user
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", id).Msg("User deleted by admin")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "User deleted successfully"))
}
