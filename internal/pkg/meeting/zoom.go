package meeting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// tokenSkew is subtracted from the OAuth token lifetime before reuse stops.
const tokenSkew = 60 * time.Second

// signatureTTL is how long an SDK join signature stays valid.
const signatureTTL = 2 * time.Hour

// ZoomConfig holds server-to-server OAuth and Meeting SDK credentials.
type ZoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	SDKKey       string
	SDKSecret    string
	APIBaseURL   string
	AuthURL      string
	Timeout      time.Duration
}

// ZoomProvider talks to the Zoom REST API.
type ZoomProvider struct {
	config ZoomConfig
	client *resty.Client
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewZoomProvider creates a ZoomProvider.
func NewZoomProvider(config ZoomConfig, logger zerolog.Logger) *ZoomProvider {
	if config.APIBaseURL == "" {
		config.APIBaseURL = "https://api.zoom.us/v2"
	}
	if config.AuthURL == "" {
		config.AuthURL = "https://zoom.us/oauth/token"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &ZoomProvider{
		config: config,
		client: resty.New().SetTimeout(config.Timeout),
		logger: logger,
		now:    time.Now,
	}
}

type zoomTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached OAuth token, fetching a new one when it is within
// tokenSkew of expiring.
func (z *ZoomProvider) token(ctx context.Context) (string, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.accessToken != "" && z.now().Before(z.expiresAt) {
		return z.accessToken, nil
	}

	resp, err := z.client.R().
		SetContext(ctx).
		SetBasicAuth(z.config.ClientID, z.config.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "account_credentials",
			"account_id": z.config.AccountID,
		}).
		Post(z.config.AuthURL)
	if err != nil {
		z.logger.Error().Err(err).Msg("Zoom token request failed")
		return "", fmt.Errorf("%w: zoom token request: %v", apperrors.ErrExternalService, err)
	}
	if resp.IsError() {
		z.logger.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("Zoom token request rejected")
		return "", fmt.Errorf("%w: zoom token request returned %d", apperrors.ErrExternalService, resp.StatusCode())
	}

	var tr zoomTokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil || tr.AccessToken == "" {
		return "", fmt.Errorf("%w: invalid zoom token response", apperrors.ErrExternalService)
	}

	z.accessToken = tr.AccessToken
	z.expiresAt = z.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSkew)
	return z.accessToken, nil
}

type zoomMeetingRequest struct {
	Topic     string              `json:"topic"`
	Type      int                 `json:"type"`
	StartTime string              `json:"start_time"`
	Duration  int                 `json:"duration"`
	Timezone  string              `json:"timezone,omitempty"`
	Settings  zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
}

type zoomMeetingResponse struct {
	ID       json.Number `json:"id"`
	JoinURL  string      `json:"join_url"`
	StartURL string      `json:"start_url"`
	Password string      `json:"password"`
}

// CreateMeeting schedules a meeting on the account's default user.
func (z *ZoomProvider) CreateMeeting(ctx context.Context, req Request) (*Meeting, error) {
	token, err := z.token(ctx)
	if err != nil {
		return nil, err
	}

	body := zoomMeetingRequest{
		Topic:     req.Topic,
		Type:      2,
		StartTime: req.StartTime.UTC().Format(time.RFC3339),
		Duration:  req.DurationMinutes,
		Timezone:  req.Timezone,
		Settings:  zoomMeetingSettings{WaitingRoom: true},
	}

	var out zoomMeetingResponse
	resp, err := z.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&out).
		Post(z.config.APIBaseURL + "/users/me/meetings")
	if err != nil {
		z.logger.Error().Err(err).Str("topic", req.Topic).Msg("Zoom create meeting failed")
		return nil, fmt.Errorf("%w: zoom create meeting: %v", apperrors.ErrExternalService, err)
	}
	if resp.IsError() {
		z.logger.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("Zoom create meeting rejected")
		return nil, fmt.Errorf("%w: zoom create meeting returned %d", apperrors.ErrExternalService, resp.StatusCode())
	}

	return &Meeting{
		ID:       out.ID.String(),
		JoinURL:  out.JoinURL,
		StartURL: out.StartURL,
		Password: out.Password,
	}, nil
}

// Signature signs a Meeting SDK join token for the meeting.
func (z *ZoomProvider) Signature(meetingNumber string, role int) (string, error) {
	if role != RoleAttendee && role != RoleHost {
		return "", fmt.Errorf("%w: invalid meeting role %d", apperrors.ErrValidationFailed, role)
	}
	if _, err := strconv.ParseInt(meetingNumber, 10, 64); err != nil {
		return "", fmt.Errorf("%w: invalid meeting number", apperrors.ErrValidationFailed)
	}

	iat := z.now().Add(-30 * time.Second).Unix()
	exp := iat + int64(signatureTTL/time.Second)
	claims := jwt.MapClaims{
		"appKey":   z.config.SDKKey,
		"sdkKey":   z.config.SDKKey,
		"mn":       meetingNumber,
		"role":     role,
		"iat":      iat,
		"exp":      exp,
		"tokenExp": exp,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(z.config.SDKSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign meeting signature: %w", err)
	}
	return signed, nil
}

// SDKKey returns the public Meeting SDK key web clients need.
func (z *ZoomProvider) SDKKey() string {
	return z.config.SDKKey
}
