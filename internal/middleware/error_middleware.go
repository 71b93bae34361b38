package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

type errorMapping struct {
	target error
	status int
	code   dto.ErrorCode
}

// errorTable is checked in order; the first sentinel err wraps wins.
var errorTable = []errorMapping{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},

	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrModuleNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrLessonNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrWorkshopNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrSessionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrHomeworkNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrQuestionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrAchievementNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrMessageNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},

	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrCapacityReached, http.StatusConflict, dto.ErrorCodeCapacityReached},
	{apperrors.ErrInvalidStatusTransition, http.StatusConflict, dto.ErrorCodeInvalidTransition},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict},

	{apperrors.ErrExternalService, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
	{apperrors.ErrMeetingProviderDisabled, http.StatusServiceUnavailable, dto.ErrorCodeServiceUnavailable},
}

// HandleAPIError handles common API errors and returns appropriate responses.
// Unknown errors become a 500 without exposing their text.
func HandleAPIError(c *gin.Context, err error) {
	status, errorDetail := translateError(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Msg("Request failed")
	}
	c.JSON(status, dto.NewErrorResponse(errorDetail))
}

func translateError(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.target.Error()
		if msg, ok := apperrors.UserMessage(err); ok {
			message = msg
		}
		detail := dto.NewErrorDetail(m.code, message)

		var ce *apperrors.CustomError
		if errors.As(err, &ce) && ce.Field != "" {
			detail.WithField(ce.Field)
		}
		if m.status < http.StatusInternalServerError {
			detail.WithSeverity(dto.ErrorSeverityWarning)
		}
		return m.status, detail
	}

	return http.StatusInternalServerError,
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithSeverity(dto.ErrorSeverityCritical)
}
