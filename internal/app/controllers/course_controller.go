package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/filestorage"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// multipart overhead allowed on top of the file itself
const uploadSlack = 1 << 20

// CourseController handles courses, their modules, lessons and rosters
type CourseController struct {
	courseService services.CourseService
	logger        zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService, logger zerolog.Logger) *CourseController {
	return &CourseController{
		courseService: courseService,
		logger:        logger,
	}
}

// ListCourses lists courses
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(ACTIVE, DRAFT, COMPLETED)
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Course}}
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	filter := dto.CourseListFilter{
		Status: models.CourseStatus(ctx.Query("status")),
		Page:   page,
		Size:   size,
	}

	result, err := c.courseService.ListCourses(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// GetCourse returns a course with its modules and lessons
// @Summary Get course
// @Description Returns the course tree: modules ordered by position, each with its lessons ordered by position.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	course, err := c.courseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course, ""))
}

// ListMyCourses lists the caller's courses
// @Summary List my courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Router /courses/my [get]
func (c *CourseController) ListMyCourses(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	courses, err := c.courseService.ListMyCourses(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses, ""))
}

// Enroll adds the caller to a course
// @Summary Enroll in course
// @Description Idempotent. Enrolling twice keeps a single enrollment.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Course is not active or full"
// @Router /courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	selfMembership(ctx, "Course", c.courseService.Enroll)
}

// Unenroll removes the caller from a course
// @Summary Leave course
// @Description Idempotent. Leaving a course you are not in is not an error.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id}/enroll [delete]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	selfMembership(ctx, "Course", c.courseService.Unenroll)
}

// CreateCourse creates a course
// @Summary Create course
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course"
// @Success 201 {object} dto.APIResponse{data=models.Course}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Router /admin/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.CreateCourse(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(course, "Course created successfully"))
}

// UpdateCourse updates a course
// @Summary Update course
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !bindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course, "Course updated successfully"))
}

// DeleteCourse deletes a course with its modules and lessons
// @Summary Delete course
// @Tags admin-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	if err := c.courseService.DeleteCourse(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Course deleted successfully"))
}

// CreateModule adds a module to a course
// @Summary Create module
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CreateModuleRequest true "Module"
// @Success 201 {object} dto.APIResponse{data=models.CourseModule}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{id}/modules [post]
func (c *CourseController) CreateModule(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	var req dto.CreateModuleRequest
	if !bindJSON(ctx, &req) {
		return
	}

	module, err := c.courseService.CreateModule(ctx.Request.Context(), courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(module, "Module created successfully"))
}

// UpdateModule updates a module
// @Summary Update module
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param moduleId path int true "Module ID"
// @Param request body dto.UpdateModuleRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.CourseModule}
// @Failure 404 {object} dto.ErrorResponse "Module not found"
// @Router /admin/modules/{moduleId} [put]
func (c *CourseController) UpdateModule(ctx *gin.Context) {
	moduleID, ok := parseIDParam(ctx, "moduleId", "Module")
	if !ok {
		return
	}
	var req dto.UpdateModuleRequest
	if !bindJSON(ctx, &req) {
		return
	}

	module, err := c.courseService.UpdateModule(ctx.Request.Context(), moduleID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(module, "Module updated successfully"))
}

// DeleteModule deletes a module and its lessons
// @Summary Delete module
// @Tags admin-courses
// @Produce json
// @Security BearerAuth
// @Param moduleId path int true "Module ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Module not found"
// @Router /admin/modules/{moduleId} [delete]
func (c *CourseController) DeleteModule(ctx *gin.Context) {
	moduleID, ok := parseIDParam(ctx, "moduleId", "Module")
	if !ok {
		return
	}

	if err := c.courseService.DeleteModule(ctx.Request.Context(), moduleID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Module deleted successfully"))
}

// CreateLesson adds a lesson to a module
// @Summary Create lesson
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param moduleId path int true "Module ID"
// @Param request body dto.CreateLessonRequest true "Lesson"
// @Success 201 {object} dto.APIResponse{data=models.Lesson}
// @Failure 404 {object} dto.ErrorResponse "Module not found"
// @Router /admin/modules/{moduleId}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	moduleID, ok := parseIDParam(ctx, "moduleId", "Module")
	if !ok {
		return
	}
	var req dto.CreateLessonRequest
	if !bindJSON(ctx, &req) {
		return
	}

	lesson, err := c.courseService.CreateLesson(ctx.Request.Context(), moduleID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(lesson, "Lesson created successfully"))
}

// UpdateLesson updates a lesson
// @Summary Update lesson
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson ID"
// @Param request body dto.UpdateLessonRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Lesson}
// @Failure 404 {object} dto.ErrorResponse "Lesson not found"
// @Router /admin/lessons/{lessonId} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	lessonID, ok := parseIDParam(ctx, "lessonId", "Lesson")
	if !ok {
		return
	}
	var req dto.UpdateLessonRequest
	if !bindJSON(ctx, &req) {
		return
	}

	lesson, err := c.courseService.UpdateLesson(ctx.Request.Context(), lessonID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(lesson, "Lesson updated successfully"))
}

// DeleteLesson deletes a lesson
// @Summary Delete lesson
// @Tags admin-courses
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Lesson not found"
// @Router /admin/lessons/{lessonId} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	lessonID, ok := parseIDParam(ctx, "lessonId", "Lesson")
	if !ok {
		return
	}

	if err := c.courseService.DeleteLesson(ctx.Request.Context(), lessonID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Lesson deleted successfully"))
}

// UploadLessonMaterial attaches a file to a lesson
// @Summary Upload lesson material
// @Description Stores a handout (pdf, office document, image or audio) and links it to the lesson. Replaces any previous material.
// @Tags admin-courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson ID"
// @Param file formData file true "Material"
// @Success 200 {object} dto.APIResponse{data=models.Lesson}
// @Failure 400 {object} dto.ErrorResponse "Missing, oversized or unsupported file"
// @Failure 404 {object} dto.ErrorResponse "Lesson not found"
// @Router /admin/lessons/{lessonId}/material [post]
func (c *CourseController) UploadLessonMaterial(ctx *gin.Context) {
	lessonID, ok := parseIDParam(ctx, "lessonId", "Lesson")
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, filestorage.MaxUploadSize+uploadSlack)
	file, err := ctx.FormFile("file")
	if err != nil {
		c.logger.Warn().Err(err).Int64("lessonID", lessonID).Msg("Invalid material upload")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "File is required").
			WithField("file").
			WithDetails("Send the material as multipart field \"file\" (max 25 MB)")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	lesson, err := c.courseService.UploadLessonMaterial(ctx.Request.Context(), lessonID, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(lesson, "Material uploaded successfully"))
}

// ListStudents lists a course's students
// @Summary List course students
// @Tags admin-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Member}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{id}/students [get]
func (c *CourseController) ListStudents(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	members, err := c.courseService.ListStudents(ctx.Request.Context(), courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members, ""))
}

// AddStudent enrolls a user in a course
// @Summary Add course student
// @Description Idempotent. Ignores course status but respects capacity.
// @Tags admin-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.AddMemberRequest true "User to enroll"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Course or user not found"
// @Failure 409 {object} dto.ErrorResponse "Course is full"
// @Router /admin/courses/{id}/students [post]
func (c *CourseController) AddStudent(ctx *gin.Context) {
	addMember(ctx, "Course", c.courseService.AddStudent)
}

// RemoveStudent removes a user from a course
// @Summary Remove course student
// @Tags admin-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param userId path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{id}/students/{userId} [delete]
func (c *CourseController) RemoveStudent(ctx *gin.Context) {
	removeMember(ctx, "Course", c.courseService.RemoveStudent)
}
