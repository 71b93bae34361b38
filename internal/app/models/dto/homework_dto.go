package dto

import (
	"encoding/json"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
)

// CreateHomeworkRequest creates homework for a user, a course, or both.
type CreateHomeworkRequest struct {
	Title            string              `json:"title" binding:"required,max=200" example:"Thought record"`
	Description      string              `json:"description"`
	DueDate          *time.Time          `json:"dueDate"`
	Type             models.HomeworkType `json:"type" binding:"omitempty,homework_type" example:"REFLECTION"`
	AssignedToUserID *int64              `json:"assignedToUserId" binding:"omitempty,min=1"`
	CourseID         *int64              `json:"courseId" binding:"omitempty,min=1"`
}

// UpdateHomeworkRequest is the admin partial update. Status may be set freely here.
type UpdateHomeworkRequest struct {
	Title            *string                `json:"title" binding:"omitempty,min=1,max=200"`
	Description      *string                `json:"description"`
	DueDate          *time.Time             `json:"dueDate"`
	Type             *models.HomeworkType   `json:"type" binding:"omitempty,homework_type"`
	Status           *models.HomeworkStatus `json:"status" binding:"omitempty,homework_status"`
	AssignedToUserID *int64                 `json:"assignedToUserId" binding:"omitempty,min=1"`
	CourseID         *int64                 `json:"courseId" binding:"omitempty,min=1"`
}

// UpdateHomeworkStatusRequest moves homework forward in its workflow.
type UpdateHomeworkStatusRequest struct {
	Status models.HomeworkStatus `json:"status" binding:"required,homework_status" example:"IN_PROGRESS"`
}

// SubmitHomeworkRequest submits the student's response text.
type SubmitHomeworkRequest struct {
	Response *string `json:"response" binding:"required" example:"I noticed my thoughts racing before the meeting."`
}

// GradeHomeworkRequest grades submitted homework.
type GradeHomeworkRequest struct {
	Grade    *int   `json:"grade" binding:"required,min=0,max=100" example:"90"`
	Feedback string `json:"feedback" example:"Great reflection"`
}

// CreateQuestionRequest adds a question to homework.
type CreateQuestionRequest struct {
	Prompt   string              `json:"prompt" binding:"required" example:"How anxious did you feel?"`
	Kind     models.QuestionKind `json:"kind" binding:"omitempty,question_kind" example:"SINGLE_CHOICE"`
	Options  json.RawMessage     `json:"options" swaggertype:"array,string"`
	Position int                 `json:"position" binding:"min=0"`
}

// AnswerRequest answers one question.
type AnswerRequest struct {
	QuestionID int64  `json:"questionId" binding:"required,min=1"`
	Answer     string `json:"answer" binding:"required"`
}

// SubmitResponsesRequest answers several questions at once.
type SubmitResponsesRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// HomeworkListFilter narrows the admin homework listing.
type HomeworkListFilter struct {
	Status   models.HomeworkStatus
	UserID   *int64
	CourseID *int64
	Page     int
	Size     int
}
