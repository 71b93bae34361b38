package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// HandleValidationError converts a binding error into an ErrorDetail with
// one FieldError per failing field.
func HandleValidationError(err error) *ErrorDetail {
	detail := NewErrorDetail(ErrorCodeValidationFailed, "Validation failed")

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: formatFieldError(fe)})
		}
		if len(fields) == 1 {
			detail.WithField(fields[0].Field)
		}
		return detail.WithDetails(fields)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return NewErrorDetail(ErrorCodeBadRequest, "Malformed JSON body").
			WithDetails(fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		return NewErrorDetail(ErrorCodeBadRequest, "Invalid field type").
			WithField(typeErr.Field).
			WithDetails(fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type))
	}

	return NewErrorDetail(ErrorCodeBadRequest, "Invalid request body").WithDetails(err.Error())
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "url":
		return e.Field() + " must be a valid URL"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "homework_status":
		return e.Field() + " must be one of: NOT_STARTED IN_PROGRESS COMPLETED GRADED"
	case "homework_type":
		return e.Field() + " must be one of: ASSIGNMENT QUIZ REFLECTION PRACTICE"
	case "course_status":
		return e.Field() + " must be one of: ACTIVE DRAFT COMPLETED"
	case "achievement_type":
		return e.Field() + " must be one of: BADGE CERTIFICATE MILESTONE"
	case "question_kind":
		return e.Field() + " must be one of: TEXT SINGLE_CHOICE MULTI_CHOICE"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
