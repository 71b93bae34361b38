package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories/repotest"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
)

type reminderRecorder struct {
	mu   sync.Mutex
	sent []string
}

func (r *reminderRecorder) Welcome(context.Context, email.Recipient) error { return nil }

func (r *reminderRecorder) WorkshopEnrollment(context.Context, email.Recipient, *models.Workshop) error {
	return nil
}

func (r *reminderRecorder) HomeworkGraded(context.Context, email.Recipient, *models.Homework) error {
	return nil
}

func (r *reminderRecorder) SessionReminder(_ context.Context, to email.Recipient, _ *models.Workshop, s *models.WorkshopSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to.Email+"/"+s.Title)
	return nil
}

func TestTomorrowWindow(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	// 20:00 UTC on the 9th is already 01:30 on the 10th in IST.
	at := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
	from, to := TomorrowWindow(at, ist)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, ist), from)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, ist), to)

	from, to = TomorrowWindow(at, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestRunRemindsOncePerSession(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	workshops := store.Workshops()

	clock := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)

	ann := &models.User{Name: "Ann", Email: "ann@x.com"}
	bob := &models.User{Name: "Bob", Email: "bob@x.com"}
	require.NoError(t, store.Users().Create(ctx, ann))
	require.NoError(t, store.Users().Create(ctx, bob))

	active := &models.Workshop{Title: "Mindfulness", IsActive: true}
	paused := &models.Workshop{Title: "Paused", IsActive: false}
	require.NoError(t, workshops.Create(ctx, active))
	require.NoError(t, workshops.Create(ctx, paused))
	for _, w := range []*models.Workshop{active, paused} {
		_, err := workshops.AddAttendee(ctx, w.ID, ann.ID)
		require.NoError(t, err)
	}
	_, err := workshops.AddAttendee(ctx, active.ID, bob.ID)
	require.NoError(t, err)

	sessions := []*models.WorkshopSession{
		{WorkshopID: active.ID, Title: "Tomorrow", StartsAt: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)},
		{WorkshopID: active.ID, Title: "Later", StartsAt: time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)},
		{WorkshopID: active.ID, Title: "Today", StartsAt: time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC)},
		{WorkshopID: paused.ID, Title: "Paused", StartsAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
	}
	for _, s := range sessions {
		require.NoError(t, workshops.CreateSession(ctx, s))
	}

	rec := &reminderRecorder{}
	job := NewReminderJob(workshops, rec, "0 9 * * *", time.UTC, zerolog.Nop())
	job.now = func() time.Time { return clock }

	sent, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"ann@x.com/Tomorrow", "bob@x.com/Tomorrow"}, rec.sent)

	stored, err := workshops.GetSession(ctx, sessions[0].ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReminderSentAt)

	sent, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, rec.sent, 2)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job := NewReminderJob(repotest.NewStore().Workshops(), &reminderRecorder{}, "not a cron", time.UTC, zerolog.Nop())
	assert.Error(t, job.Start())
	job.Stop()

	job = NewReminderJob(repotest.NewStore().Workshops(), &reminderRecorder{}, "@every 1h", time.UTC, zerolog.Nop())
	require.NoError(t, job.Start())
	job.Stop()
}
