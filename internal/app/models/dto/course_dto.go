package dto

import "github.com/destinpq/destinpq-lms-sub000/internal/app/models"

// CreateCourseRequest creates a course.
type CreateCourseRequest struct {
	Title       string              `json:"title" binding:"required,max=200" example:"Foundations of CBT"`
	Description string              `json:"description"`
	Instructor  string              `json:"instructor" binding:"max=120" example:"Dr. Jane Smith"`
	MaxStudents *int                `json:"maxStudents" binding:"omitempty,min=0" example:"30"`
	Status      models.CourseStatus `json:"status" binding:"omitempty,course_status" example:"DRAFT"`
}

// UpdateCourseRequest partially updates a course.
type UpdateCourseRequest struct {
	Title       *string              `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string              `json:"description"`
	Instructor  *string              `json:"instructor" binding:"omitempty,max=120"`
	MaxStudents *int                 `json:"maxStudents" binding:"omitempty,min=0"`
	Status      *models.CourseStatus `json:"status" binding:"omitempty,course_status"`
}

// CreateModuleRequest adds a module to a course.
type CreateModuleRequest struct {
	Title       string `json:"title" binding:"required,max=200" example:"Cognitive distortions"`
	Description string `json:"description"`
	Position    int    `json:"position" binding:"min=0" example:"1"`
}

// UpdateModuleRequest partially updates a module.
type UpdateModuleRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Position    *int    `json:"position" binding:"omitempty,min=0"`
}

// CreateLessonRequest adds a lesson to a module.
type CreateLessonRequest struct {
	Title           string  `json:"title" binding:"required,max=200" example:"Catastrophising"`
	Content         string  `json:"content"`
	VideoURL        *string `json:"videoUrl" binding:"omitempty,url"`
	DurationMinutes int     `json:"durationMinutes" binding:"min=0" example:"20"`
	Position        int     `json:"position" binding:"min=0" example:"1"`
}

// UpdateLessonRequest partially updates a lesson.
type UpdateLessonRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	Content         *string `json:"content"`
	VideoURL        *string `json:"videoUrl" binding:"omitempty,url"`
	DurationMinutes *int    `json:"durationMinutes" binding:"omitempty,min=0"`
	Position        *int    `json:"position" binding:"omitempty,min=0"`
}

// AddMemberRequest names the user to add to a roster.
type AddMemberRequest struct {
	UserID int64 `json:"userId" binding:"required,min=1" example:"3"`
}

// CourseListFilter narrows course listings.
type CourseListFilter struct {
	Status models.CourseStatus
	Page   int
	Size   int
}
