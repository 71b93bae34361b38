package dto

import "time"

// ErrorCode is the machine readable part of an error envelope.
type ErrorCode string

const (
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_INVALID_CREDENTIALS"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_INVALID_TOKEN"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrorCodeTokenNotFound      ErrorCode = "AUTH_TOKEN_MISSING"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_UNAUTHORIZED"
	ErrorCodeForbidden          ErrorCode = "AUTH_FORBIDDEN"

	ErrorCodeResourceNotFound      ErrorCode = "LMS_NOT_FOUND"
	ErrorCodeResourceAlreadyExists ErrorCode = "LMS_ALREADY_EXISTS"
	ErrorCodeConflict              ErrorCode = "LMS_CONFLICT"
	ErrorCodeCapacityReached       ErrorCode = "LMS_WORKSHOP_FULL"
	ErrorCodeInvalidTransition     ErrorCode = "LMS_INVALID_STATUS_TRANSITION"

	ErrorCodeValidationFailed ErrorCode = "REQ_VALIDATION_FAILED"
	ErrorCodeBadRequest       ErrorCode = "REQ_BAD_REQUEST"

	ErrorCodeInternalServer       ErrorCode = "SRV_INTERNAL"
	ErrorCodeExternalServiceError ErrorCode = "SRV_UPSTREAM"
	ErrorCodeServiceUnavailable   ErrorCode = "SRV_UNAVAILABLE"
)

// ErrorSeverity tells clients whether the failure is their fault (WARNING)
// or ours (ERROR, CRITICAL).
type ErrorSeverity string

const (
	ErrorSeverityWarning  ErrorSeverity = "WARNING"
	ErrorSeverityError    ErrorSeverity = "ERROR"
	ErrorSeverityCritical ErrorSeverity = "CRITICAL"
)

// ErrorDetail is the "error" object of a failed response.
type ErrorDetail struct {
	Code     ErrorCode     `json:"code" example:"LMS_WORKSHOP_FULL"`
	Message  string        `json:"message" example:"workshop has reached its capacity"`
	Field    string        `json:"field,omitempty" example:"email"`
	Severity ErrorSeverity `json:"severity" example:"WARNING"`
	Details  interface{}   `json:"details,omitempty"`
}

// ErrorResponse wraps an ErrorDetail with the common envelope fields.
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2026-03-02T18:00:00Z"`
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"email must be a valid email address"`
}

func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{Code: code, Message: message, Severity: ErrorSeverityError}
}

func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

func (e *ErrorDetail) WithSeverity(severity ErrorSeverity) *ErrorDetail {
	e.Severity = severity
	return e
}

func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

func NewErrorResponse(detail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{Error: detail, Timestamp: time.Now().UTC()}
}
