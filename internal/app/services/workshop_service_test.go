package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/meeting"
)

func TestWorkshopCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "Ada", "a@x.com", false)
	b := f.user(t, "Bob", "b@x.com", false)
	c := f.user(t, "Cyd", "c@x.com", false)

	w, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Mindfulness", MaxParticipants: intPtr(2)})
	require.NoError(t, err)
	assert.True(t, w.IsActive)

	for _, u := range []int64{a.ID, b.ID} {
		res, err := f.svc.Workshop.AddParticipant(ctx, w.ID, u)
		require.NoError(t, err)
		assert.True(t, res.Changed)
	}

	_, err = f.svc.Workshop.AddParticipant(ctx, w.ID, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrCapacityReached)

	// re-adding an existing attendee stays a no-op even when full
	res, err := f.svc.Workshop.Attend(ctx, w.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 2, res.Members)

	members, err := f.svc.Workshop.ListParticipants(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// two adds, one no-op: exactly two enrollment emails
	assert.Equal(t, 2, f.notifier.count("enrollment"))

	res, err = f.svc.Workshop.Leave(ctx, w.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	res, err = f.svc.Workshop.Attend(ctx, w.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestAttendRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "Ada", "a@x.com", false)

	inactive := false
	w, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Closed", IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Workshop.Attend(ctx, w.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	open, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Open"})
	require.NoError(t, err)
	_, err = f.svc.Workshop.AddParticipant(ctx, open.ID, 4242)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.svc.Workshop.RemoveParticipant(ctx, 4242, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrWorkshopNotFound)
}

func TestWorkshopDateValidation(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)

	_, err := f.svc.Workshop.CreateWorkshop(context.Background(), &dto.CreateWorkshopRequest{Title: "Bad", StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSessionDurationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Mindfulness"})
	require.NoError(t, err)
	starts := time.Now().Add(24 * time.Hour)

	for _, minutes := range []int{-30, 1441} {
		_, err = f.svc.Workshop.CreateSession(ctx, w.ID, &dto.CreateSessionRequest{Title: "Week 1", StartsAt: starts, DurationMinutes: minutes})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "minutes %d", minutes)
	}

	session, err := f.svc.Workshop.CreateSession(ctx, w.ID, &dto.CreateSessionRequest{Title: "Week 1", StartsAt: starts, DurationMinutes: 90})
	require.NoError(t, err)
	assert.Equal(t, 90, session.DurationMinutes)

	for _, minutes := range []int{0, -5} {
		_, err = f.svc.Workshop.UpdateSession(ctx, w.ID, session.ID, &dto.UpdateSessionRequest{DurationMinutes: intPtr(minutes)})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "minutes %d", minutes)
	}

	updated, err := f.svc.Workshop.UpdateSession(ctx, w.ID, session.ID, &dto.UpdateSessionRequest{DurationMinutes: intPtr(45)})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.DurationMinutes)
}

func TestSessionMeetingAndSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "Admin", "admin@x.com", true)
	attendee := f.user(t, "Ada", "a@x.com", false)
	stranger := f.user(t, "Bob", "b@x.com", false)

	w, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Mindfulness"})
	require.NoError(t, err)
	_, err = f.svc.Workshop.Attend(ctx, w.ID, attendee.ID)
	require.NoError(t, err)

	session, err := f.svc.Workshop.CreateSession(ctx, w.ID, &dto.CreateSessionRequest{Title: "Week 1", StartsAt: time.Now().Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, defaultSessionMinutes, session.DurationMinutes)

	_, err = f.svc.Workshop.MeetingSignature(ctx, w.ID, session.ID, attendee.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	withMeeting, err := f.svc.Workshop.CreateSessionMeeting(ctx, w.ID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, withMeeting.MeetingID)
	assert.Equal(t, "85746065432", *withMeeting.MeetingID)
	assert.Equal(t, 1, f.meetings.created)

	sig, err := f.svc.Workshop.MeetingSignature(ctx, w.ID, session.ID, attendee.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.RoleAttendee, sig.Role)
	assert.Equal(t, "sdk-key", sig.SDKKey)

	sig, err = f.svc.Workshop.MeetingSignature(ctx, w.ID, session.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.RoleHost, sig.Role)

	_, err = f.svc.Workshop.MeetingSignature(ctx, w.ID, session.ID, stranger.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// a session is only reachable through its own workshop
	other, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Other"})
	require.NoError(t, err)
	_, err = f.svc.Workshop.MeetingSignature(ctx, other.ID, session.ID, admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestMeetingProviderDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewWorkshopService(f.store.Workshops(), f.store.Users(), nil, nil, "UTC", zerolog.Nop())

	w, err := svc.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Mindfulness"})
	require.NoError(t, err)
	session, err := svc.CreateSession(ctx, w.ID, &dto.CreateSessionRequest{Title: "Week 1", StartsAt: time.Now()})
	require.NoError(t, err)

	_, err = svc.CreateSessionMeeting(ctx, w.ID, session.ID)
	assert.ErrorIs(t, err, apperrors.ErrMeetingProviderDisabled)
}
