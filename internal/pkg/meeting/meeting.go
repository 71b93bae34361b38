// Package meeting creates video meetings for workshop sessions and signs
// Meeting SDK join tokens.
package meeting

import (
	"context"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// Roles accepted by Signature.
const (
	RoleAttendee = 0
	RoleHost     = 1
)

// Request describes a meeting to schedule.
type Request struct {
	Topic           string
	StartTime       time.Time
	DurationMinutes int
	Timezone        string
}

// Meeting is a scheduled meeting as returned by the provider.
type Meeting struct {
	ID       string
	JoinURL  string
	StartURL string
	Password string
}

// Provider is a third-party video meeting service.
type Provider interface {
	CreateMeeting(ctx context.Context, req Request) (*Meeting, error)
	Signature(meetingNumber string, role int) (string, error)
	SDKKey() string
}

// NoopProvider is used when no provider is configured.
type NoopProvider struct{}

// CreateMeeting always fails with ErrMeetingProviderDisabled.
func (NoopProvider) CreateMeeting(ctx context.Context, req Request) (*Meeting, error) {
	return nil, apperrors.ErrMeetingProviderDisabled
}

// Signature always fails with ErrMeetingProviderDisabled.
func (NoopProvider) Signature(meetingNumber string, role int) (string, error) {
	return "", apperrors.ErrMeetingProviderDisabled
}

// SDKKey is empty.
func (NoopProvider) SDKKey() string { return "" }
