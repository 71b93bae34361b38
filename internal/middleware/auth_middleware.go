package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repositories.IUserRepository
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repositories.IUserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// JWTAuth requires "Authorization: Bearer <jwt>". Anything else is a 401
// before the handler runs.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token format")
			return
		}

		m.authenticate(c, tokenString)
	}
}

// JWTAuthWebSocket accepts the bearer header or a "token" query parameter,
// since browsers cannot set headers on a websocket handshake.
func (m *AuthMiddleware) JWTAuthWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			var err error
			tokenString, err = auth.ExtractBearerToken(authHeader)
			if err != nil {
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token format")
				return
			}
		}
		if tokenString == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header or token parameter missing")
			return
		}

		m.authenticate(c, tokenString)
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) {
	claims, userID, err := m.jwtService.ValidateAndExtractClaims(tokenString)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
			return
		}
		abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
		return
	}

	c.Set(ContextUserID, userID)
	c.Set(ContextEmail, claims.Email)
	c.Next()
}

// AdminRequired re-reads the user on every request so a revoked admin flag
// takes effect immediately. It must run after JWTAuth.
func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User no longer exists")
				return
			}
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		if !user.IsAdmin {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("Administrator privileges are required")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the id JWTAuth stored on the context.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}
