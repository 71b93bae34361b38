package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func newZoomServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "acct", r.PostForm.Get("account_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/users/me/meetings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Week 1", body["topic"])
		assert.Equal(t, float64(45), body["duration"])
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 85746065432, "join_url": "https://zoom.example/j/85746065432", "start_url": "https://zoom.example/s/1"}`))
	})
	return httptest.NewServer(mux)
}

func TestZoomCreateMeetingCachesToken(t *testing.T) {
	var tokenCalls int32
	srv := newZoomServer(t, &tokenCalls)
	defer srv.Close()

	z := NewZoomProvider(ZoomConfig{
		AccountID: "acct", ClientID: "client", ClientSecret: "secret",
		APIBaseURL: srv.URL + "/v2", AuthURL: srv.URL + "/oauth/token",
	}, zerolog.Nop())

	req := Request{Topic: "Week 1", StartTime: time.Now().Add(time.Hour), DurationMinutes: 45}
	m, err := z.CreateMeeting(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "85746065432", m.ID)
	assert.Equal(t, "https://zoom.example/j/85746065432", m.JoinURL)

	_, err = z.CreateMeeting(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	// past the skewed expiry a new token is fetched
	z.now = func() time.Time { return time.Now().Add(3600*time.Second - tokenSkew + time.Second) }
	_, err = z.CreateMeeting(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
}

func TestZoomRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	z := NewZoomProvider(ZoomConfig{AuthURL: srv.URL, APIBaseURL: srv.URL}, zerolog.Nop())
	_, err := z.CreateMeeting(context.Background(), Request{Topic: "x", StartTime: time.Now()})
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
}

func TestZoomSignature(t *testing.T) {
	z := NewZoomProvider(ZoomConfig{SDKKey: "sdk-key", SDKSecret: "sdk-secret"}, zerolog.Nop())

	signed, err := z.Signature("85746065432", RoleHost)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("sdk-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.Equal(t, "sdk-key", claims["sdkKey"])
	assert.Equal(t, "85746065432", claims["mn"])
	assert.Equal(t, float64(RoleHost), claims["role"])
	assert.Equal(t, claims["exp"], claims["tokenExp"])

	_, err = z.Signature("abc", RoleAttendee)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = z.Signature("1", 7)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	_, err := p.CreateMeeting(context.Background(), Request{})
	assert.ErrorIs(t, err, apperrors.ErrMeetingProviderDisabled)
	_, err = p.Signature("1", RoleAttendee)
	assert.ErrorIs(t, err, apperrors.ErrMeetingProviderDisabled)
}
