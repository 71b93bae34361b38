// Package jobs holds the background work scheduled next to the API server.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
)

// ReminderJob emails attendees of every session starting tomorrow. Sessions
// are marked once reminded, so repeated runs send nothing new.
type ReminderJob struct {
	workshops repositories.IWorkshopRepository
	notifier  email.Notifier
	schedule  string
	loc       *time.Location
	logger    zerolog.Logger
	now       func() time.Time

	cron  *cron.Cron
	runMu sync.Mutex
}

// NewReminderJob creates a job running on the given cron schedule in loc.
func NewReminderJob(
	workshops repositories.IWorkshopRepository,
	notifier email.Notifier,
	schedule string,
	loc *time.Location,
	logger zerolog.Logger,
) *ReminderJob {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderJob{
		workshops: workshops,
		notifier:  notifier,
		schedule:  schedule,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// TomorrowWindow returns [start of tomorrow, start of the day after) in loc.
func TomorrowWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	from := now.With(t.In(loc).AddDate(0, 0, 1)).BeginningOfDay()
	return from, from.AddDate(0, 0, 1)
}

// Start registers the job with a cron scheduler and starts it.
func (j *ReminderJob) Start() error {
	c := cron.New(cron.WithLocation(j.loc))
	if _, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error().Err(err).Msg("Session reminder run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", j.schedule, err)
	}
	c.Start()
	j.cron = c
	j.logger.Info().Str("schedule", j.schedule).Str("timezone", j.loc.String()).Msg("Session reminder scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *ReminderJob) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("Session reminder scheduler stopped")
}

// Run sends the reminders due now and returns the number of emails sent.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	from, to := TomorrowWindow(j.now(), j.loc)
	sessions, err := j.workshops.ListSessionsStartingBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("error listing upcoming sessions: %w", err)
	}
	j.logger.Info().Time("from", from).Time("to", to).Int("sessions", len(sessions)).Msg("Running session reminders")

	sent := 0
	workshops := make(map[int64]*models.Workshop)
	for _, session := range sessions {
		workshop, ok := workshops[session.WorkshopID]
		if !ok {
			workshop, err = j.workshops.GetByID(ctx, session.WorkshopID)
			if err != nil {
				j.logger.Error().Err(err).Int64("sessionID", session.ID).Msg("Error loading workshop for reminder")
				continue
			}
			workshops[session.WorkshopID] = workshop
		}
		if !workshop.IsActive {
			continue
		}

		attendees, err := j.workshops.ListAttendees(ctx, workshop.ID)
		if err != nil {
			j.logger.Error().Err(err).Int64("workshopID", workshop.ID).Msg("Error listing attendees for reminder")
			continue
		}
		for _, a := range attendees {
			if err := j.notifier.SessionReminder(ctx, email.Recipient{Name: a.Name, Email: a.Email}, workshop, session); err != nil {
				j.logger.Warn().Err(err).Int64("sessionID", session.ID).Int64("userID", a.UserID).Msg("Failed to send session reminder")
				continue
			}
			sent++
		}

		if err := j.workshops.MarkSessionReminded(ctx, session.ID, j.now()); err != nil {
			return sent, fmt.Errorf("error marking session %d reminded: %w", session.ID, err)
		}
	}
	return sent, nil
}
