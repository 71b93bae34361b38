package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/config"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error   { f.committed = true; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rolledBack = true; return nil }

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTransactionCommits(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	err := WithTransaction(context.Background(), b, func(ctx context.Context, tx pgx.Tx) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, b.tx.committed)
	assert.False(t, b.tx.rolledBack)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")
	err := WithTransaction(context.Background(), b, func(context.Context, pgx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, b.tx.rolledBack)
	assert.False(t, b.tx.committed)
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	assert.Panics(t, func() {
		_ = WithTransaction(context.Background(), b, func(context.Context, pgx.Tx) error { panic("bad") })
	})
	assert.True(t, b.tx.rolledBack)
}

func TestWithTransactionBeginFailure(t *testing.T) {
	b := &fakeBeginner{err: errors.New("no conn")}
	err := WithTransaction(context.Background(), b, func(context.Context, pgx.Tx) error { return nil })
	assert.ErrorContains(t, err, "begin transaction")
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = "5432"
	cfg.Database.User = "lms"
	cfg.Database.Password = "secret"
	cfg.Database.DBName = "lms"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxOpenConns = 4
	cfg.Database.MaxIdleConns = 10
	cfg.Database.ConnMaxLifetime = "15m"
	return cfg
}

func TestPoolConfig(t *testing.T) {
	pc, err := PoolConfig(testConfig(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, int32(4), pc.MinConns)
	assert.Equal(t, 15*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.NotNil(t, pc.BeforeAcquire)
}

func TestPoolConfigBadLifetime(t *testing.T) {
	cfg := testConfig()
	cfg.Database.ConnMaxLifetime = "forever"
	_, err := PoolConfig(cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "conn_max_lifetime")
}

func TestPingWithoutPool(t *testing.T) {
	var d *PostgresDB
	assert.Error(t, d.Ping(context.Background()))
}
