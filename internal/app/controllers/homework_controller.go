package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// HomeworkController handles homework for students and administrators
type HomeworkController struct {
	homeworkService services.HomeworkService
	logger          zerolog.Logger
}

// NewHomeworkController creates a new HomeworkController
func NewHomeworkController(homeworkService services.HomeworkService, logger zerolog.Logger) *HomeworkController {
	return &HomeworkController{
		homeworkService: homeworkService,
		logger:          logger,
	}
}

// ListMyHomework lists homework assigned to the caller or to their courses
// @Summary List my homework
// @Tags homework
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Homework}
// @Router /homework [get]
func (c *HomeworkController) ListMyHomework(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	items, err := c.homeworkService.ListMyHomework(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(items, ""))
}

// GetHomework returns one homework item
// @Summary Get homework
// @Tags homework
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Success 200 {object} dto.APIResponse{data=models.Homework}
// @Failure 404 {object} dto.ErrorResponse "Homework not found or not visible"
// @Router /homework/{id} [get]
func (c *HomeworkController) GetHomework(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}

	hw, err := c.homeworkService.GetHomework(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hw, ""))
}

// UpdateStatus moves homework forward
// @Summary Update homework status
// @Description Forward only: NOT_STARTED, IN_PROGRESS, COMPLETED. Repeating the current status is a no-op. GRADED is set by grading.
// @Tags homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Param request body dto.UpdateHomeworkStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=models.Homework}
// @Failure 403 {object} dto.ErrorResponse "Not the assigned student"
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Failure 409 {object} dto.ErrorResponse "Backward transition"
// @Router /homework/{id}/status [put]
func (c *HomeworkController) UpdateStatus(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}
	var req dto.UpdateHomeworkStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}

	hw, err := c.homeworkService.UpdateStatus(ctx.Request.Context(), id, userID, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hw, "Status updated"))
}

// Submit stores the caller's response
// @Summary Submit homework
// @Description Stores the response, which may be empty, and marks the homework COMPLETED. Resubmission is allowed. Only the assigned student may submit; course students answer the questions instead.
// @Tags homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Param request body dto.SubmitHomeworkRequest true "Response"
// @Success 200 {object} dto.APIResponse{data=models.Homework}
// @Failure 403 {object} dto.ErrorResponse "Not the assigned student"
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Router /homework/{id}/submit [post]
func (c *HomeworkController) Submit(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}
	var req dto.SubmitHomeworkRequest
	if !bindJSON(ctx, &req) {
		return
	}

	hw, err := c.homeworkService.Submit(ctx.Request.Context(), id, userID, *req.Response)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hw, "Homework submitted"))
}

// ListQuestions lists the homework's questions
// @Summary List homework questions
// @Tags homework
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Success 200 {object} dto.APIResponse{data=[]models.HomeworkQuestion}
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Router /homework/{id}/questions [get]
func (c *HomeworkController) ListQuestions(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}

	questions, err := c.homeworkService.ListQuestions(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(questions, ""))
}

// SubmitResponses answers questions
// @Summary Answer homework questions
// @Description Choice answers must be one of the question's options; multi choice answers are a JSON array. Answering again replaces the previous answer.
// @Tags homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Param request body dto.SubmitResponsesRequest true "Answers"
// @Success 200 {object} dto.APIResponse{data=[]models.HomeworkResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid answer"
// @Failure 404 {object} dto.ErrorResponse "Homework or question not found"
// @Router /homework/{id}/responses [post]
func (c *HomeworkController) SubmitResponses(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}
	var req dto.SubmitResponsesRequest
	if !bindJSON(ctx, &req) {
		return
	}

	responses, err := c.homeworkService.SubmitResponses(ctx.Request.Context(), id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(responses, "Answers saved"))
}

// ListHomework lists all homework
// @Summary List homework (admin)
// @Tags admin-homework
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(NOT_STARTED, IN_PROGRESS, COMPLETED, GRADED)
// @Param userId query int false "Assigned user"
// @Param courseId query int false "Course"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Homework}}
// @Router /admin/homework [get]
func (c *HomeworkController) ListHomework(ctx *gin.Context) {
	userID, ok := queryID(ctx, "userId")
	if !ok {
		return
	}
	courseID, ok := queryID(ctx, "courseId")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.homeworkService.ListHomework(ctx.Request.Context(), dto.HomeworkListFilter{
		Status:   models.HomeworkStatus(ctx.Query("status")),
		UserID:   userID,
		CourseID: courseID,
		Page:     page,
		Size:     size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// CreateHomework assigns homework
// @Summary Create homework
// @Description Assign to a user, to every student of a course, or both.
// @Tags admin-homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateHomeworkRequest true "Homework"
// @Success 201 {object} dto.APIResponse{data=models.Homework}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "User or course not found"
// @Router /admin/homework [post]
func (c *HomeworkController) CreateHomework(ctx *gin.Context) {
	var req dto.CreateHomeworkRequest
	if !bindJSON(ctx, &req) {
		return
	}

	hw, err := c.homeworkService.CreateHomework(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(hw, "Homework created successfully"))
}

// UpdateHomework edits homework
// @Summary Update homework
// @Description Administrators may set any status here.
// @Tags admin-homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Param request body dto.UpdateHomeworkRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Homework}
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Router /admin/homework/{id} [put]
func (c *HomeworkController) UpdateHomework(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}
	var req dto.UpdateHomeworkRequest
	if !bindJSON(ctx, &req) {
		return
	}

	hw, err := c.homeworkService.UpdateHomework(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hw, "Homework updated successfully"))
}

// DeleteHomework deletes homework
// @Summary Delete homework
// @Tags admin-homework
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Router /admin/homework/{id} [delete]
func (c *HomeworkController) DeleteHomework(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}

	if err := c.homeworkService.DeleteHomework(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Homework deleted successfully"))
}

// Grade grades submitted homework
// @Summary Grade homework
// @Tags admin-homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Param request body dto.GradeHomeworkRequest true "Grade and feedback"
// @Success 200 {object} dto.APIResponse{data=models.Homework}
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Failure 409 {object} dto.ErrorResponse "Homework not submitted yet"
// @Router /admin/homework/{id}/grade [post]
func (c *HomeworkController) Grade(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}
	var req dto.GradeHomeworkRequest
	if !bindJSON(ctx, &req) {
		return
	}

	hw, err := c.homeworkService.Grade(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hw, "Homework graded"))
}

// CreateQuestion adds a question
// @Summary Create homework question
// @Tags admin-homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Param request body dto.CreateQuestionRequest true "Question"
// @Success 201 {object} dto.APIResponse{data=models.HomeworkQuestion}
// @Failure 400 {object} dto.ErrorResponse "Invalid options"
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Router /admin/homework/{id}/questions [post]
func (c *HomeworkController) CreateQuestion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}
	var req dto.CreateQuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	q, err := c.homeworkService.CreateQuestion(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(q, "Question created successfully"))
}

// DeleteQuestion deletes a question
// @Summary Delete homework question
// @Tags admin-homework
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "Question ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/homework/questions/{questionId} [delete]
func (c *HomeworkController) DeleteQuestion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "questionId", "Question")
	if !ok {
		return
	}

	if err := c.homeworkService.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Question deleted successfully"))
}

// ListResponses lists every answer to the homework's questions
// @Summary List homework responses
// @Tags admin-homework
// @Produce json
// @Security BearerAuth
// @Param id path int true "Homework ID"
// @Success 200 {object} dto.APIResponse{data=[]models.HomeworkResponse}
// @Failure 404 {object} dto.ErrorResponse "Homework not found"
// @Router /admin/homework/{id}/responses [get]
func (c *HomeworkController) ListResponses(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Homework")
	if !ok {
		return
	}

	responses, err := c.homeworkService.ListResponses(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(responses, ""))
}
