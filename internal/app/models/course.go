package models

import "time"

// Course is a self-paced programme made of ordered modules.
type Course struct {
	ID               int64           `json:"id" db:"id" example:"1"`
	Title            string          `json:"title" db:"title" example:"Foundations of CBT"`
	Description      string          `json:"description" db:"description"`
	Instructor       string          `json:"instructor" db:"instructor" example:"Dr. Jane Smith"`
	MaxStudents      *int            `json:"maxStudents,omitempty" db:"max_students" example:"30"`
	Status           CourseStatus    `json:"status" db:"status" example:"ACTIVE"`
	EnrolledStudents int             `json:"enrolledStudents" example:"12"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
	Modules          []*CourseModule `json:"modules,omitempty"`
}

// CourseModule groups lessons inside a course.
type CourseModule struct {
	ID          int64     `json:"id" db:"id" example:"10"`
	CourseID    int64     `json:"courseId" db:"course_id" example:"1"`
	Title       string    `json:"title" db:"title" example:"Cognitive distortions"`
	Description string    `json:"description" db:"description"`
	Position    int       `json:"position" db:"position" example:"1"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Lessons     []*Lesson `json:"lessons,omitempty"`
}

// Lesson is a single unit of content inside a module.
type Lesson struct {
	ID              int64     `json:"id" db:"id" example:"100"`
	ModuleID        int64     `json:"moduleId" db:"module_id" example:"10"`
	Title           string    `json:"title" db:"title" example:"Catastrophising"`
	Content         string    `json:"content" db:"content"`
	VideoURL        *string   `json:"videoUrl,omitempty" db:"video_url"`
	MaterialURL     *string   `json:"materialUrl,omitempty" db:"material_url"`
	DurationMinutes int       `json:"durationMinutes" db:"duration_minutes" example:"20"`
	Position        int       `json:"position" db:"position" example:"1"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}
