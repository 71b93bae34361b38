package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
)

// AchievementController handles the achievement catalogue and awards
type AchievementController struct {
	achievementService services.AchievementService
}

// NewAchievementController creates a new AchievementController
func NewAchievementController(achievementService services.AchievementService) *AchievementController {
	return &AchievementController{achievementService: achievementService}
}

// ListAchievements lists the catalogue
// @Summary List achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Achievement}
// @Router /achievements [get]
func (c *AchievementController) ListAchievements(ctx *gin.Context) {
	items, err := c.achievementService.ListAchievements(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(items, ""))
}

// ListMyAchievements lists what the caller has earned
// @Summary List my achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Achievement}
// @Router /achievements/my [get]
func (c *AchievementController) ListMyAchievements(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	items, err := c.achievementService.ListMyAchievements(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(items, ""))
}

// GetAchievement returns one achievement
// @Summary Get achievement
// @Tags admin-achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} dto.APIResponse{data=models.Achievement}
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /admin/achievements/{id} [get]
func (c *AchievementController) GetAchievement(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Achievement")
	if !ok {
		return
	}
	a, err := c.achievementService.GetAchievement(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(a, ""))
}

// CreateAchievement adds to the catalogue
// @Summary Create achievement
// @Tags admin-achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAchievementRequest true "Achievement"
// @Success 201 {object} dto.APIResponse{data=models.Achievement}
// @Failure 409 {object} dto.ErrorResponse "Title already used"
// @Router /admin/achievements [post]
func (c *AchievementController) CreateAchievement(ctx *gin.Context) {
	var req dto.CreateAchievementRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, err := c.achievementService.CreateAchievement(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(a, "Achievement created successfully"))
}

// UpdateAchievement edits an achievement
// @Summary Update achievement
// @Tags admin-achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param request body dto.UpdateAchievementRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Achievement}
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /admin/achievements/{id} [put]
func (c *AchievementController) UpdateAchievement(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Achievement")
	if !ok {
		return
	}
	var req dto.UpdateAchievementRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, err := c.achievementService.UpdateAchievement(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(a, "Achievement updated successfully"))
}

// DeleteAchievement removes an achievement and its awards
// @Summary Delete achievement
// @Tags admin-achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /admin/achievements/{id} [delete]
func (c *AchievementController) DeleteAchievement(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Achievement")
	if !ok {
		return
	}
	if err := c.achievementService.DeleteAchievement(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Achievement deleted successfully"))
}

// ListHolders lists users holding an achievement
// @Summary List achievement holders
// @Tags admin-achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Member}
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /admin/achievements/{id}/users [get]
func (c *AchievementController) ListHolders(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Achievement")
	if !ok {
		return
	}
	members, err := c.achievementService.ListHolders(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members, ""))
}

// Award grants an achievement
// @Summary Award achievement
// @Description Idempotent.
// @Tags admin-achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param request body dto.AddMemberRequest true "User"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Achievement or user not found"
// @Router /admin/achievements/{id}/users [post]
func (c *AchievementController) Award(ctx *gin.Context) {
	addMember(ctx, "Achievement", c.achievementService.Award)
}

// Revoke takes an achievement back
// @Summary Revoke achievement
// @Description Idempotent.
// @Tags admin-achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param userId path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /admin/achievements/{id}/users/{userId} [delete]
func (c *AchievementController) Revoke(ctx *gin.Context) {
	removeMember(ctx, "Achievement", c.achievementService.Revoke)
}
