package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories/repotest"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	jwt   *auth.JWTService
	store *repotest.Store
	mw    *AuthMiddleware
}

func newAuthFixture() *authFixture {
	jwt := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "lms-test",
	})
	store := repotest.NewStore()
	return &authFixture{jwt: jwt, store: store, mw: NewAuthMiddleware(jwt, store.Users())}
}

func (f *authFixture) token(t *testing.T, user *models.User) string {
	t.Helper()
	pair, err := f.jwt.GenerateTokenPair(user.ID, user.Email)
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *authFixture) user(t *testing.T, email string, admin bool) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, Password: "x", IsAdmin: admin}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *authFixture) router() *gin.Engine {
	r := gin.New()
	whoami := func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"userID": id, "email": c.GetString(ContextEmail)})
	}
	r.GET("/me", f.mw.JWTAuth(), whoami)
	r.GET("/admin", f.mw.JWTAuth(), f.mw.AdminRequired(), whoami)
	r.GET("/ws", f.mw.JWTAuthWebSocket(), whoami)
	return r
}

func do(r http.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	f := newAuthFixture()
	u := f.user(t, "a@x.com", false)
	token := f.token(t, u)
	r := f.router()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"raw token without scheme", token, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"tampered token", "Bearer " + token + "x", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/me", tc.header)
			assert.Equal(t, tc.status, w.Code)
		})
	}

	w := do(r, http.MethodGet, "/me", "Bearer "+token)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, u.ID, body["userID"])
	assert.Equal(t, "a@x.com", body["email"])
}

func TestJWTAuthWebSocketQueryToken(t *testing.T) {
	f := newAuthFixture()
	u := f.user(t, "a@x.com", false)
	r := f.router()

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ws?token="+f.token(t, u), "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ws", "Bearer "+f.token(t, u)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws?token=bogus", "").Code)
}

func TestAdminRequired(t *testing.T) {
	f := newAuthFixture()
	admin := f.user(t, "admin@x.com", true)
	plain := f.user(t, "a@x.com", false)
	r := f.router()

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", "Bearer "+f.token(t, admin)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", "Bearer "+f.token(t, plain)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "").Code)

	// a valid token for a deleted user is no longer enough
	gone := f.user(t, "gone@x.com", true)
	token := f.token(t, gone)
	require.NoError(t, f.store.Users().Delete(context.Background(), gone.ID))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "Bearer "+token).Code)

	// demotion takes effect on the next request
	admin.IsAdmin = false
	require.NoError(t, f.store.Users().Update(context.Background(), admin))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", "Bearer "+f.token(t, admin)).Code)
}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.NewValidationError("title", "title is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.NewBadRequestError("you cannot message yourself"), http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{fmt.Errorf("%w: signature", apperrors.ErrTokenInvalid), http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{apperrors.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("load: %w", apperrors.ErrHomeworkNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{apperrors.NewCustomError(apperrors.ErrCapacityReached, "workshop is full"), http.StatusConflict, dto.ErrorCodeCapacityReached},
		{apperrors.ErrInvalidStatusTransition, http.StatusConflict, dto.ErrorCodeInvalidTransition},
		{apperrors.NewConflictError("title taken"), http.StatusConflict, dto.ErrorCodeConflict},
		{fmt.Errorf("%w: zoom returned 500", apperrors.ErrExternalService), http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{apperrors.ErrMeetingProviderDisabled, http.StatusServiceUnavailable, dto.ErrorCodeServiceUnavailable},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, detail := translateError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, detail.Code)
		})
	}
}

func TestHandleAPIErrorBody(t *testing.T) {
	r := gin.New()
	r.GET("/full", func(c *gin.Context) {
		HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrCapacityReached, "workshop is full"))
	})
	r.GET("/field", func(c *gin.Context) {
		HandleAPIError(c, apperrors.NewValidationError("endDate", "endDate must not be before startDate"))
	})
	r.GET("/boom", func(c *gin.Context) {
		HandleAPIError(c, errors.New("dial tcp 10.0.0.3:5432: secret internals"))
	})

	w := do(r, http.MethodGet, "/full", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "workshop is full", body.Error.Message)

	w = do(r, http.MethodGet, "/field", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "endDate", body.Error.Field)

	w = do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internals")
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         12 * time.Hour,
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSVariesOnOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{
		AllowedOrigins: []string{"https://lms.example/"},
		AllowedMethods: []string{"GET"},
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		origin string
		allow  string
	}{
		{"configured with trailing slash", "https://lms.example", "https://lms.example"},
		{"sent with trailing slash", "https://lms.example/", "https://lms.example/"},
		{"refused origin", "http://evil.example", ""},
		{"no origin", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.allow, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
		})
	}

	wildcard := gin.New()
	wildcard.Use(CORS(CORSConfig{AllowedOrigins: []string{"*"}}))
	wildcard.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	w := httptest.NewRecorder()
	wildcard.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Vary"))
}

func TestRegisteredValidators(t *testing.T) {
	RegisterValidators()

	type payload struct {
		Status models.HomeworkStatus `json:"status" binding:"required,homework_status"`
	}
	r := gin.New()
	r.POST("/v", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post(`{"status":"IN_PROGRESS"}`).Code)

	w := post(`{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "status", body.Error.Field)
}
