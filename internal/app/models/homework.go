package models

import (
	"encoding/json"
	"time"
)

// Homework is an assignment given to a single user or to every student of a course.
type Homework struct {
	ID               int64          `json:"id" db:"id" example:"1"`
	Title            string         `json:"title" db:"title" example:"Thought record"`
	Description      string         `json:"description" db:"description"`
	DueDate          *time.Time     `json:"dueDate,omitempty" db:"due_date"`
	Status           HomeworkStatus `json:"status" db:"status" example:"NOT_STARTED"`
	Type             HomeworkType   `json:"type" db:"type" example:"REFLECTION"`
	AssignedToUserID *int64         `json:"assignedToUserId,omitempty" db:"assigned_to_user_id" example:"3"`
	CourseID         *int64         `json:"courseId,omitempty" db:"course_id" example:"1"`
	StudentResponse  *string        `json:"studentResponse,omitempty" db:"student_response"`
	Grade            *int           `json:"grade,omitempty" db:"grade" example:"90"`
	Feedback         *string        `json:"feedback,omitempty" db:"feedback"`
	SubmittedAt      *time.Time     `json:"submittedAt,omitempty" db:"submitted_at"`
	GradedAt         *time.Time     `json:"gradedAt,omitempty" db:"graded_at"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time      `json:"updatedAt" db:"updated_at"`
}

// HomeworkQuestion is a quiz-style item attached to homework.
type HomeworkQuestion struct {
	ID         int64           `json:"id" db:"id" example:"1"`
	HomeworkID int64           `json:"homeworkId" db:"homework_id" example:"1"`
	Prompt     string          `json:"prompt" db:"prompt" example:"How anxious did you feel?"`
	Kind       QuestionKind    `json:"kind" db:"kind" example:"SINGLE_CHOICE"`
	Options    json.RawMessage `json:"options,omitempty" db:"options" swaggertype:"array,string"`
	Position   int             `json:"position" db:"position" example:"1"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// HomeworkResponse is one user's answer to a question.
type HomeworkResponse struct {
	ID         int64     `json:"id" db:"id" example:"1"`
	QuestionID int64     `json:"questionId" db:"question_id" example:"1"`
	UserID     int64     `json:"userId" db:"user_id" example:"3"`
	Answer     string    `json:"answer" db:"answer" example:"Mostly calm"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}
