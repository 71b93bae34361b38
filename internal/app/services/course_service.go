package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/filestorage"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// CourseService manages courses, their content tree and enrollments.
type CourseService interface {
	ListCourses(ctx context.Context, filter dto.CourseListFilter) (*dto.PaginatedResponse, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListMyCourses(ctx context.Context, userID int64) ([]*models.Course, error)
	Enroll(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error)
	Unenroll(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error)

	CreateCourse(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error)
	UpdateCourse(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	CreateModule(ctx context.Context, courseID int64, req *dto.CreateModuleRequest) (*models.CourseModule, error)
	UpdateModule(ctx context.Context, moduleID int64, req *dto.UpdateModuleRequest) (*models.CourseModule, error)
	DeleteModule(ctx context.Context, moduleID int64) error

	CreateLesson(ctx context.Context, moduleID int64, req *dto.CreateLessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID int64, req *dto.UpdateLessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID int64) error
	UploadLessonMaterial(ctx context.Context, lessonID int64, file *multipart.FileHeader) (*models.Lesson, error)

	ListStudents(ctx context.Context, courseID int64) ([]*models.Member, error)
	AddStudent(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error)
	RemoveStudent(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error)
}

type courseServiceImpl struct {
	courseRepo repositories.ICourseRepository
	userRepo   repositories.IUserRepository
	storage    filestorage.FileStorage
	logger     zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courseRepo repositories.ICourseRepository,
	userRepo repositories.IUserRepository,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) CourseService {
	return &courseServiceImpl{
		courseRepo: courseRepo,
		userRepo:   userRepo,
		storage:    storage,
		logger:     logger,
	}
}

func (s *courseServiceImpl) ListCourses(ctx context.Context, filter dto.CourseListFilter) (*dto.PaginatedResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "status must be one of ACTIVE, DRAFT, COMPLETED")
	}
	courses, total, err := s.courseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := helpers.NewPaginatedResponse(courses, total, filter.Page, filter.Size)
	return &page, nil
}

// GetCourse returns the course with its modules and lessons in position order.
func (s *courseServiceImpl) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	modules, err := s.courseRepo.ListModules(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Modules = modules
	return course, nil
}

func (s *courseServiceImpl) ListMyCourses(ctx context.Context, userID int64) ([]*models.Course, error) {
	return s.courseRepo.ListByStudent(ctx, userID)
}

// Enroll adds the caller to an ACTIVE course.
func (s *courseServiceImpl) Enroll(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusActive {
		return nil, apperrors.NewConflictError("course is not open for enrollment")
	}
	return s.addStudent(ctx, courseID, userID)
}

func (s *courseServiceImpl) Unenroll(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error) {
	return s.RemoveStudent(ctx, courseID, userID)
}

func (s *courseServiceImpl) CreateCourse(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error) {
	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Instructor:  strings.TrimSpace(req.Instructor),
		MaxStudents: req.MaxStudents,
		Status:      req.Status,
	}
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("courseID", course.ID).Msg("Course created")
	return course, nil
}

func (s *courseServiceImpl) UpdateCourse(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Instructor != nil {
		course.Instructor = strings.TrimSpace(*req.Instructor)
	}
	if req.MaxStudents != nil {
		course.MaxStudents = req.MaxStudents
	}
	if req.Status != nil {
		course.Status = *req.Status
	}
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes the course. Modules, lessons and enrollments go with it.
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id int64) error {
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("courseID", id).Msg("Course deleted")
	return nil
}

func (s *courseServiceImpl) CreateModule(ctx context.Context, courseID int64, req *dto.CreateModuleRequest) (*models.CourseModule, error) {
	module := &models.CourseModule{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Position:    req.Position,
	}
	if module.Title == "" {
		return nil, apperrors.NewValidationError("title", "title is required")
	}
	if err := s.courseRepo.CreateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *courseServiceImpl) UpdateModule(ctx context.Context, moduleID int64, req *dto.UpdateModuleRequest) (*models.CourseModule, error) {
	module, err := s.courseRepo.GetModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		module.Title = strings.TrimSpace(*req.Title)
		if module.Title == "" {
			return nil, apperrors.NewValidationError("title", "title is required")
		}
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	if err := s.courseRepo.UpdateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *courseServiceImpl) DeleteModule(ctx context.Context, moduleID int64) error {
	return s.courseRepo.DeleteModule(ctx, moduleID)
}

func (s *courseServiceImpl) CreateLesson(ctx context.Context, moduleID int64, req *dto.CreateLessonRequest) (*models.Lesson, error) {
	lesson := &models.Lesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(req.Title),
		Content:         req.Content,
		VideoURL:        req.VideoURL,
		DurationMinutes: req.DurationMinutes,
		Position:        req.Position,
	}
	if lesson.Title == "" {
		return nil, apperrors.NewValidationError("title", "title is required")
	}
	if err := s.courseRepo.CreateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *courseServiceImpl) UpdateLesson(ctx context.Context, lessonID int64, req *dto.UpdateLessonRequest) (*models.Lesson, error) {
	lesson, err := s.courseRepo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
		if lesson.Title == "" {
			return nil, apperrors.NewValidationError("title", "title is required")
		}
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
	if err := s.courseRepo.UpdateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *courseServiceImpl) DeleteLesson(ctx context.Context, lessonID int64) error {
	lesson, err := s.courseRepo.GetLesson(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.courseRepo.DeleteLesson(ctx, lessonID); err != nil {
		return err
	}
	s.removeMaterial(lesson)
	return nil
}

// UploadLessonMaterial stores the file and replaces any previous material.
func (s *courseServiceImpl) UploadLessonMaterial(ctx context.Context, lessonID int64, file *multipart.FileHeader) (*models.Lesson, error) {
	if s.storage == nil {
		return nil, apperrors.NewBadRequestError("file uploads are disabled")
	}

	lesson, err := s.courseRepo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.SaveFileWithPath(file, fmt.Sprintf("lessons/%d", lessonID))
	if err != nil {
		if errors.Is(err, filestorage.ErrUnsupportedFile) {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		return nil, err
	}

	if err := s.courseRepo.SetLessonMaterial(ctx, lessonID, url); err != nil {
		if delErr := s.storage.DeleteFile(url); delErr != nil {
			s.logger.Warn().Err(delErr).Str("url", url).Msg("Failed to clean up uploaded material")
		}
		return nil, err
	}

	s.removeMaterial(lesson)
	lesson.MaterialURL = &url
	s.logger.Info().Int64("lessonID", lessonID).Str("url", url).Msg("Lesson material uploaded")
	return lesson, nil
}

func (s *courseServiceImpl) removeMaterial(lesson *models.Lesson) {
	if s.storage == nil || lesson.MaterialURL == nil || *lesson.MaterialURL == "" {
		return
	}
	if err := s.storage.DeleteFile(*lesson.MaterialURL); err != nil {
		s.logger.Warn().Err(err).Int64("lessonID", lesson.ID).Msg("Failed to delete old lesson material")
	}
}

func (s *courseServiceImpl) ListStudents(ctx context.Context, courseID int64) ([]*models.Member, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.courseRepo.ListStudents(ctx, courseID)
}

// AddStudent enrolls any user regardless of course status. Capacity still applies.
func (s *courseServiceImpl) AddStudent(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error) {
	return s.addStudent(ctx, courseID, userID)
}

func (s *courseServiceImpl) RemoveStudent(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	removed, err := s.courseRepo.RemoveStudent(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.courseRepo.CountStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if removed {
		s.logger.Info().Int64("courseID", courseID).Int64("userID", userID).Msg("Student removed from course")
	}
	return membership(userID, removed, count), nil
}

func (s *courseServiceImpl) addStudent(ctx context.Context, courseID, userID int64) (*dto.MembershipResponse, error) {
	added, err := s.courseRepo.AddStudent(ctx, courseID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCapacityReached) {
			return nil, apperrors.NewCustomError(apperrors.ErrCapacityReached, "course is full")
		}
		return nil, err
	}
	count, err := s.courseRepo.CountStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if added {
		s.logger.Info().Int64("courseID", courseID).Int64("userID", userID).Msg("Student enrolled")
	}
	return membership(userID, added, count), nil
}

func validateCourse(course *models.Course) error {
	if course.Title == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if !course.Status.Valid() {
		return apperrors.NewValidationError("status", "status must be one of ACTIVE, DRAFT, COMPLETED")
	}
	if course.MaxStudents != nil && *course.MaxStudents < 0 {
		return apperrors.NewValidationError("maxStudents", "maxStudents cannot be negative")
	}
	return nil
}
