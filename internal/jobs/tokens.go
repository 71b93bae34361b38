package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TokenPurgeSchedule runs the purge once a night.
const TokenPurgeSchedule = "30 3 * * *"

// TokenStore is the part of the token repository the purge needs.
type TokenStore interface {
	PurgeStaleTokens(ctx context.Context) (int64, error)
}

// TokenPurgeJob deletes expired and long-revoked refresh tokens.
type TokenPurgeJob struct {
	tokens   TokenStore
	schedule string
	logger   zerolog.Logger
	cron     *cron.Cron
}

func NewTokenPurgeJob(tokens TokenStore, schedule string, logger zerolog.Logger) *TokenPurgeJob {
	if schedule == "" {
		schedule = TokenPurgeSchedule
	}
	return &TokenPurgeJob{tokens: tokens, schedule: schedule, logger: logger}
}

func (j *TokenPurgeJob) Start() error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error().Err(err).Msg("Refresh token purge failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid token purge schedule %q: %w", j.schedule, err)
	}
	c.Start()
	j.cron = c
	return nil
}

func (j *TokenPurgeJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *TokenPurgeJob) Run(ctx context.Context) (int64, error) {
	n, err := j.tokens.PurgeStaleTokens(ctx)
	if err != nil {
		return 0, err
	}
	j.logger.Info().Int64("deleted", n).Msg("Purged stale refresh tokens")
	return n, nil
}
