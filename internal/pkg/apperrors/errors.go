// Package apperrors defines the sentinel errors services return. The HTTP
// layer maps each sentinel to a status code and error code; services never
// pick status codes themselves.
package apperrors

import "errors"

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrBadRequest       = errors.New("bad request")
	ErrValidationFailed = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
)

// Authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrModuleNotFound      = errors.New("module not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrWorkshopNotFound    = errors.New("workshop not found")
	ErrSessionNotFound     = errors.New("workshop session not found")
	ErrHomeworkNotFound    = errors.New("homework not found")
	ErrQuestionNotFound    = errors.New("homework question not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrMessageNotFound     = errors.New("message not found")
)

var (
	ErrCapacityReached         = errors.New("capacity reached")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrMeetingProviderDisabled = errors.New("meeting provider not configured")
	ErrExternalService         = errors.New("external service error")
)

var notFound = []error{
	ErrResourceNotFound,
	ErrUserNotFound,
	ErrCourseNotFound,
	ErrModuleNotFound,
	ErrLessonNotFound,
	ErrWorkshopNotFound,
	ErrSessionNotFound,
	ErrHomeworkNotFound,
	ErrQuestionNotFound,
	ErrAchievementNotFound,
	ErrMessageNotFound,
}

// IsNotFound reports whether err wraps any not-found sentinel.
func IsNotFound(err error) bool {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CustomError attaches a client-facing message, and optionally the offending
// request field, to a sentinel.
type CustomError struct {
	Err     error
	Message string
	Field   string
}

func (e *CustomError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error { return e.Err }

func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

func NewConflictError(message string) error {
	return NewCustomError(ErrConflict, message)
}

func NewForbiddenError(message string) error {
	return NewCustomError(ErrPermissionDenied, message)
}

func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}

// NewValidationError reports a failed rule on one request field.
func NewValidationError(field, message string) *CustomError {
	return &CustomError{Err: ErrValidationFailed, Message: message, Field: field}
}

// UserMessage returns the client-facing message carried by err, if any.
func UserMessage(err error) (string, bool) {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message, true
	}
	return "", false
}
