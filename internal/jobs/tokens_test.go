package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeTokens) PurgeStaleTokens(context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func TestTokenPurgeRun(t *testing.T) {
	store := &fakeTokens{deleted: 3}
	job := NewTokenPurgeJob(store, "", zerolog.Nop())
	assert.Equal(t, TokenPurgeSchedule, job.schedule)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	store.err = errors.New("db down")
	_, err = job.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestTokenPurgeStartStop(t *testing.T) {
	job := NewTokenPurgeJob(&fakeTokens{}, "@every 1h", zerolog.Nop())
	require.NoError(t, job.Start())
	job.Stop()

	assert.Error(t, NewTokenPurgeJob(&fakeTokens{}, "not a schedule", zerolog.Nop()).Start())
}
