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
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
)

// HomeworkService runs the homework workflow for students and admins.
type HomeworkService interface {
	ListMyHomework(ctx context.Context, userID int64) ([]*models.Homework, error)
	GetHomework(ctx context.Context, id, userID int64) (*models.Homework, error)
	UpdateStatus(ctx context.Context, id, userID int64, status models.HomeworkStatus) (*models.Homework, error)
	Submit(ctx context.Context, id, userID int64, response string) (*models.Homework, error)
	ListQuestions(ctx context.Context, id, userID int64) ([]*models.HomeworkQuestion, error)
	SubmitResponses(ctx context.Context, id, userID int64, req *dto.SubmitResponsesRequest) ([]*models.HomeworkResponse, error)

	ListHomework(ctx context.Context, filter dto.HomeworkListFilter) (*dto.PaginatedResponse, error)
	CreateHomework(ctx context.Context, req *dto.CreateHomeworkRequest) (*models.Homework, error)
	UpdateHomework(ctx context.Context, id int64, req *dto.UpdateHomeworkRequest) (*models.Homework, error)
	DeleteHomework(ctx context.Context, id int64) error
	Grade(ctx context.Context, id int64, req *dto.GradeHomeworkRequest) (*models.Homework, error)
	CreateQuestion(ctx context.Context, homeworkID int64, req *dto.CreateQuestionRequest) (*models.HomeworkQuestion, error)
	DeleteQuestion(ctx context.Context, questionID int64) error
	ListResponses(ctx context.Context, homeworkID int64) ([]*models.HomeworkResponse, error)
}

type homeworkServiceImpl struct {
	homeworkRepo repositories.IHomeworkRepository
	courseRepo   repositories.ICourseRepository
	userRepo     repositories.IUserRepository
	notifier     email.Notifier
	logger       zerolog.Logger
	now          func() time.Time
}

// NewHomeworkService creates a new HomeworkService
func NewHomeworkService(
	homeworkRepo repositories.IHomeworkRepository,
	courseRepo repositories.ICourseRepository,
	userRepo repositories.IUserRepository,
	notifier email.Notifier,
	logger zerolog.Logger,
) HomeworkService {
	return &homeworkServiceImpl{
		homeworkRepo: homeworkRepo,
		courseRepo:   courseRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// ListMyHomework returns direct assignments and course homework. Course
// homework carries no student work, since it belongs to the assignee only.
func (s *homeworkServiceImpl) ListMyHomework(ctx context.Context, userID int64) ([]*models.Homework, error) {
	items, err := s.homeworkRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, hw := range items {
		if !isAssignee(hw, userID) {
			hideStudentWork(hw)
		}
	}
	return items, nil
}

func isAssignee(hw *models.Homework, userID int64) bool {
	return hw.AssignedToUserID != nil && *hw.AssignedToUserID == userID
}

// hideStudentWork strips the assignee's progress from a copy shown to a
// classmate.
func hideStudentWork(hw *models.Homework) {
	hw.Status = models.HomeworkNotStarted
	hw.StudentResponse = nil
	hw.Grade = nil
	hw.Feedback = nil
	hw.SubmittedAt = nil
	hw.GradedAt = nil
}

// GetHomework returns homework the user can see: assigned to them, set for a
// course they study, or any homework for admins. Anything else looks missing.
// Course students other than the assignee get the homework without student work.
func (s *homeworkServiceImpl) GetHomework(ctx context.Context, id, userID int64) (*models.Homework, error) {
	hw, err := s.homeworkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAssignee(hw, userID) {
		return hw, nil
	}

	admin, err := isAdmin(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	if admin {
		return hw, nil
	}

	if hw.CourseID != nil {
		enrolled, err := s.courseRepo.IsStudent(ctx, *hw.CourseID, userID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			hideStudentWork(hw)
			return hw, nil
		}
	}
	return nil, apperrors.ErrHomeworkNotFound
}

// ownHomework loads homework whose status and response the user may change.
// Only the direct assignee qualifies.
func (s *homeworkServiceImpl) ownHomework(ctx context.Context, id, userID int64) (*models.Homework, error) {
	hw, err := s.GetHomework(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !isAssignee(hw, userID) {
		return nil, apperrors.NewForbiddenError("only the assigned student can change this homework")
	}
	return hw, nil
}

// UpdateStatus only moves forward. Repeating the current status is a no-op.
func (s *homeworkServiceImpl) UpdateStatus(ctx context.Context, id, userID int64, status models.HomeworkStatus) (*models.Homework, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "status must be one of NOT_STARTED, IN_PROGRESS, COMPLETED, GRADED")
	}
	if status == models.HomeworkGraded {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidStatusTransition, "homework is graded by an instructor")
	}

	hw, err := s.ownHomework(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if hw.Status == status {
		return hw, nil
	}
	if !hw.Status.CanAdvanceTo(status) {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidStatusTransition,
			"cannot move homework from "+string(hw.Status)+" to "+string(status))
	}

	if err := s.homeworkRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	hw.Status = status
	return hw, nil
}

// Submit stores the response and sets COMPLETED whatever the previous status.
// An empty response is stored as given.
func (s *homeworkServiceImpl) Submit(ctx context.Context, id, userID int64, response string) (*models.Homework, error) {
	hw, err := s.ownHomework(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.homeworkRepo.Submit(ctx, id, response, at); err != nil {
		return nil, err
	}
	hw.Status = models.HomeworkCompleted
	hw.StudentResponse = &response
	hw.SubmittedAt = &at

	s.logger.Info().Int64("homeworkID", id).Int64("userID", userID).Msg("Homework submitted")
	return hw, nil
}

func (s *homeworkServiceImpl) ListQuestions(ctx context.Context, id, userID int64) ([]*models.HomeworkQuestion, error) {
	if _, err := s.GetHomework(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.homeworkRepo.ListQuestions(ctx, id)
}

// SubmitResponses validates every answer before storing any of them.
func (s *homeworkServiceImpl) SubmitResponses(ctx context.Context, id, userID int64, req *dto.SubmitResponsesRequest) ([]*models.HomeworkResponse, error) {
	if _, err := s.GetHomework(ctx, id, userID); err != nil {
		return nil, err
	}
	if len(req.Answers) == 0 {
		return nil, apperrors.NewValidationError("answers", "at least one answer is required")
	}

	responses := make([]*models.HomeworkResponse, 0, len(req.Answers))
	for _, a := range req.Answers {
		q, err := s.homeworkRepo.GetQuestion(ctx, a.QuestionID)
		if err != nil {
			return nil, err
		}
		if q.HomeworkID != id {
			return nil, apperrors.ErrQuestionNotFound
		}
		if err := validateAnswer(ctx, q, a.Answer); err != nil {
			return nil, err
		}
		responses = append(responses, &models.HomeworkResponse{
			QuestionID: q.ID,
			UserID:     userID,
			Answer:     a.Answer,
		})
	}

	for _, r := range responses {
		if err := s.homeworkRepo.UpsertResponse(ctx, r); err != nil {
			return nil, err
		}
	}
	return responses, nil
}

func (s *homeworkServiceImpl) ListHomework(ctx context.Context, filter dto.HomeworkListFilter) (*dto.PaginatedResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "status must be one of NOT_STARTED, IN_PROGRESS, COMPLETED, GRADED")
	}
	items, total, err := s.homeworkRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := helpers.NewPaginatedResponse(items, total, filter.Page, filter.Size)
	return &page, nil
}

func (s *homeworkServiceImpl) CreateHomework(ctx context.Context, req *dto.CreateHomeworkRequest) (*models.Homework, error) {
	hw := &models.Homework{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		DueDate:          req.DueDate,
		Status:           models.HomeworkNotStarted,
		Type:             req.Type,
		AssignedToUserID: req.AssignedToUserID,
		CourseID:         req.CourseID,
	}
	if hw.Type == "" {
		hw.Type = models.HomeworkTypeAssignment
	}
	if err := validateHomework(hw); err != nil {
		return nil, err
	}

	if err := s.homeworkRepo.Create(ctx, hw); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("homeworkID", hw.ID).Msg("Homework created")
	return hw, nil
}

// UpdateHomework is the admin edit. Status may be set to any value here.
func (s *homeworkServiceImpl) UpdateHomework(ctx context.Context, id int64, req *dto.UpdateHomeworkRequest) (*models.Homework, error) {
	hw, err := s.homeworkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		hw.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		hw.Description = *req.Description
	}
	if req.DueDate != nil {
		hw.DueDate = req.DueDate
	}
	if req.Type != nil {
		hw.Type = *req.Type
	}
	if req.Status != nil {
		hw.Status = *req.Status
	}
	if req.AssignedToUserID != nil {
		hw.AssignedToUserID = req.AssignedToUserID
	}
	if req.CourseID != nil {
		hw.CourseID = req.CourseID
	}
	if err := validateHomework(hw); err != nil {
		return nil, err
	}

	if err := s.homeworkRepo.Update(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

func (s *homeworkServiceImpl) DeleteHomework(ctx context.Context, id int64) error {
	return s.homeworkRepo.Delete(ctx, id)
}

// Grade records grade and feedback on submitted homework and emails the assignee.
func (s *homeworkServiceImpl) Grade(ctx context.Context, id int64, req *dto.GradeHomeworkRequest) (*models.Homework, error) {
	if req.Grade == nil || *req.Grade < 0 || *req.Grade > 100 {
		return nil, apperrors.NewValidationError("grade", "grade must be between 0 and 100")
	}

	hw, err := s.homeworkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hw.Status != models.HomeworkCompleted && hw.Status != models.HomeworkGraded {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidStatusTransition, "only submitted homework can be graded")
	}

	at := s.now()
	if err := s.homeworkRepo.Grade(ctx, id, *req.Grade, req.Feedback, at); err != nil {
		return nil, err
	}
	grade := *req.Grade
	feedback := req.Feedback
	hw.Grade = &grade
	hw.Feedback = &feedback
	hw.GradedAt = &at
	hw.Status = models.HomeworkGraded

	s.logger.Info().Int64("homeworkID", id).Int("grade", grade).Msg("Homework graded")
	s.notifyGraded(ctx, hw)
	return hw, nil
}

func (s *homeworkServiceImpl) notifyGraded(ctx context.Context, hw *models.Homework) {
	if s.notifier == nil || hw.AssignedToUserID == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, *hw.AssignedToUserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("homeworkID", hw.ID).Msg("Failed to load assignee for grading email")
		return
	}
	if err := s.notifier.HomeworkGraded(ctx, recipientOf(user), hw); err != nil {
		s.logger.Warn().Err(err).Int64("homeworkID", hw.ID).Msg("Failed to send grading email")
	}
}

func (s *homeworkServiceImpl) CreateQuestion(ctx context.Context, homeworkID int64, req *dto.CreateQuestionRequest) (*models.HomeworkQuestion, error) {
	q := &models.HomeworkQuestion{
		HomeworkID: homeworkID,
		Prompt:     strings.TrimSpace(req.Prompt),
		Kind:       req.Kind,
		Options:    req.Options,
		Position:   req.Position,
	}
	if q.Kind == "" {
		q.Kind = models.QuestionText
	}
	if q.Prompt == "" {
		return nil, apperrors.NewValidationError("prompt", "prompt is required")
	}
	if !q.Kind.Valid() {
		return nil, apperrors.NewValidationError("kind", "kind must be one of TEXT, SINGLE_CHOICE, MULTI_CHOICE")
	}
	if err := validateQuestionOptions(ctx, q.Kind, q.Options); err != nil {
		return nil, err
	}
	if !q.Kind.IsChoice() {
		q.Options = nil
	}

	if err := s.homeworkRepo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *homeworkServiceImpl) DeleteQuestion(ctx context.Context, questionID int64) error {
	return s.homeworkRepo.DeleteQuestion(ctx, questionID)
}

func (s *homeworkServiceImpl) ListResponses(ctx context.Context, homeworkID int64) ([]*models.HomeworkResponse, error) {
	if _, err := s.homeworkRepo.GetByID(ctx, homeworkID); err != nil {
		return nil, err
	}
	return s.homeworkRepo.ListResponses(ctx, homeworkID, 0)
}

func validateHomework(hw *models.Homework) error {
	if hw.Title == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if !hw.Type.Valid() {
		return apperrors.NewValidationError("type", "type must be one of ASSIGNMENT, QUIZ, REFLECTION, PRACTICE")
	}
	if !hw.Status.Valid() {
		return apperrors.NewValidationError("status", "status must be one of NOT_STARTED, IN_PROGRESS, COMPLETED, GRADED")
	}
	if hw.AssignedToUserID == nil && hw.CourseID == nil {
		return apperrors.NewValidationError("assignedToUserId", "homework must be assigned to a user or a course")
	}
	return nil
}
