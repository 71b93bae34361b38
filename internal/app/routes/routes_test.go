package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/controllers"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories/repotest"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	gin.SetMode(gin.TestMode)
	middleware.RegisterValidators()
	os.Exit(m.Run())
}

type apiEnvelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type testServer struct {
	router *gin.Engine
	svc    *services.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repotest.NewStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "e2e-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "lms-e2e",
	})
	log := zerolog.Nop()
	svc := services.NewServices(services.Deps{
		Users:        store.Users(),
		Tokens:       store.Tokens(),
		Courses:      store.Courses(),
		Workshops:    store.Workshops(),
		Homework:     store.Homework(),
		Achievements: store.Achievements(),
		Messages:     store.Messages(),
		JWT:          jwtService,
		Notifier:     email.NewTemplateNotifier(email.NewLogSender(log), "LMS", log),
		Timezone:     "UTC",
		Logger:       log,
	})

	router := gin.New()
	SetupRouter(router, Controllers{
		Auth:        controllers.NewAuthController(svc.Auth, log),
		User:        controllers.NewUserController(svc.User, log),
		Course:      controllers.NewCourseController(svc.Course, log),
		Workshop:    controllers.NewWorkshopController(svc.Workshop, log),
		Homework:    controllers.NewHomeworkController(svc.Homework, log),
		Achievement: controllers.NewAchievementController(svc.Achievement),
		Message:     controllers.NewMessageController(svc.Message, log),
		Health:      controllers.NewHealthController(nil, log),
	}, middleware.NewAuthMiddleware(jwtService, store.Users()), nil)

	return &testServer{router: router, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) login(t *testing.T, mail, password string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: mail, Password: password})
	require.Equal(t, http.StatusOK, code)
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token.AccessToken)
	return resp.Token.AccessToken
}

func TestRegisterLoginProfileAdmin(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Name: "A", Email: "a@x.com", Password: "pw123456",
	})
	// Names need two characters.
	require.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})
	assert.Equal(t, http.StatusConflict, code)

	token := s.login(t, "a@x.com", "pw123456")

	code, env = s.do(t, http.MethodGet, "/api/v1/users/profile/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var profile struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "a@x.com", profile.Email)
	assert.False(t, profile.IsAdmin)

	code, _ = s.do(t, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/users/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/admin/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	s := newTestServer(t)
	_, err := s.svc.User.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})
	require.NoError(t, err)

	code1, env1 := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "a@x.com", Password: "wrong123"})
	code2, env2 := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "nobody@x.com", Password: "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, code1)
	assert.Equal(t, code1, code2)
	require.NotNil(t, env1.Error)
	require.NotNil(t, env2.Error)
	assert.Equal(t, env1.Error.Message, env2.Error.Message)
	assert.Equal(t, env1.Error.Code, env2.Error.Code)
}

func TestWorkshopAttendanceOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.svc.User.CreateUser(ctx, &dto.CreateUserRequest{Name: "Admin", Email: "admin@x.com", Password: "pw123456", IsAdmin: true})
	require.NoError(t, err)
	_, err = s.svc.User.CreateUser(ctx, &dto.CreateUserRequest{Name: "Ann", Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)

	adminToken := s.login(t, "admin@x.com", "pw123456")
	userToken := s.login(t, "a@x.com", "pw123456")

	limit := 1
	code, env := s.do(t, http.MethodPost, "/api/v1/admin/workshops", adminToken, dto.CreateWorkshopRequest{
		Title: "Mindfulness", MaxParticipants: &limit,
	})
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	attend := fmt.Sprintf("/api/v1/workshops/%d/attend", created.ID)
	for i := 0; i < 2; i++ {
		code, env = s.do(t, http.MethodPost, attend, userToken, nil)
		require.Equal(t, http.StatusOK, code)
		var m dto.MembershipResponse
		require.NoError(t, json.Unmarshal(env.Data, &m))
		assert.Equal(t, i == 0, m.Changed)
		assert.Equal(t, 1, m.Members)
	}

	// The only seat is taken.
	code, _ = s.do(t, http.MethodPost, attend, adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/workshops/%d/participants", created.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var members []struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &members))
	require.Len(t, members, 1)
	assert.Equal(t, "a@x.com", members[0].Email)

	for i := 0; i < 2; i++ {
		code, _ = s.do(t, http.MethodDelete, attend, userToken, nil)
		assert.Equal(t, http.StatusOK, code)
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/admin/workshops", userToken, dto.CreateWorkshopRequest{Title: "Nope"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestSwaggerDocs(t *testing.T) {
	router := gin.New()
	SetupSwagger(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/swagger/index.html", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/workshops/{id}/attend")
}
