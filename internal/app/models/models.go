package models

import "time"

// CourseStatus is the lifecycle state of a course.
type CourseStatus string

const (
	CourseStatusActive    CourseStatus = "ACTIVE"
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusCompleted CourseStatus = "COMPLETED"
)

// Valid reports whether s is a known course status.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusActive, CourseStatusDraft, CourseStatusCompleted:
		return true
	}
	return false
}

// HomeworkStatus tracks homework progress. The order of the constants is the
// only allowed forward direction.
type HomeworkStatus string

const (
	HomeworkNotStarted HomeworkStatus = "NOT_STARTED"
	HomeworkInProgress HomeworkStatus = "IN_PROGRESS"
	HomeworkCompleted  HomeworkStatus = "COMPLETED"
	HomeworkGraded     HomeworkStatus = "GRADED"
)

var homeworkStatusRank = map[HomeworkStatus]int{
	HomeworkNotStarted: 0,
	HomeworkInProgress: 1,
	HomeworkCompleted:  2,
	HomeworkGraded:     3,
}

// Valid reports whether s is a known homework status.
func (s HomeworkStatus) Valid() bool {
	_, ok := homeworkStatusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the workflow
// monotonic. Staying in the same state is allowed.
func (s HomeworkStatus) CanAdvanceTo(next HomeworkStatus) bool {
	from, ok := homeworkStatusRank[s]
	if !ok {
		return false
	}
	to, ok := homeworkStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// HomeworkType classifies homework.
type HomeworkType string

const (
	HomeworkTypeAssignment HomeworkType = "ASSIGNMENT"
	HomeworkTypeQuiz       HomeworkType = "QUIZ"
	HomeworkTypeReflection HomeworkType = "REFLECTION"
	HomeworkTypePractice   HomeworkType = "PRACTICE"
)

// Valid reports whether t is a known homework type.
func (t HomeworkType) Valid() bool {
	switch t {
	case HomeworkTypeAssignment, HomeworkTypeQuiz, HomeworkTypeReflection, HomeworkTypePractice:
		return true
	}
	return false
}

// QuestionKind is the answer format of a homework question.
type QuestionKind string

const (
	QuestionText         QuestionKind = "TEXT"
	QuestionSingleChoice QuestionKind = "SINGLE_CHOICE"
	QuestionMultiChoice  QuestionKind = "MULTI_CHOICE"
)

// Valid reports whether k is a known question kind.
func (k QuestionKind) Valid() bool {
	switch k {
	case QuestionText, QuestionSingleChoice, QuestionMultiChoice:
		return true
	}
	return false
}

// IsChoice reports whether the question needs an options list.
func (k QuestionKind) IsChoice() bool {
	return k == QuestionSingleChoice || k == QuestionMultiChoice
}

// AchievementType classifies achievements.
type AchievementType string

const (
	AchievementBadge       AchievementType = "BADGE"
	AchievementCertificate AchievementType = "CERTIFICATE"
	AchievementMilestone   AchievementType = "MILESTONE"
)

// Valid reports whether t is a known achievement type.
func (t AchievementType) Valid() bool {
	switch t {
	case AchievementBadge, AchievementCertificate, AchievementMilestone:
		return true
	}
	return false
}

// Member is a user row seen through a membership relation
// (course students, workshop attendees, achievement holders).
type Member struct {
	UserID   int64     `json:"userId" example:"3"`
	Name     string    `json:"name" example:"Ada Lovelace"`
	Email    string    `json:"email" example:"ada@example.com"`
	IsAdmin  bool      `json:"isAdmin" example:"false"`
	JoinedAt time.Time `json:"joinedAt" example:"2025-01-10T09:00:00Z"`
}
