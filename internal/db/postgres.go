// Package db wraps the pgx connection pool and the transaction helper the
// repositories share.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	txTimeout      = 30 * time.Second
)

type PostgresDB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// PoolConfig translates the database section of the config into pgxpool
// settings. Connections are pinged before being handed out.
func PoolConfig(cfg *config.Config, logger zerolog.Logger) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	lifetime, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("database conn_max_lifetime: %w", err)
	}
	pc.MaxConnLifetime = lifetime
	pc.MaxConns = int32(cfg.Database.MaxOpenConns)
	pc.MinConns = int32(cfg.Database.MaxIdleConns)
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}

	pc.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Dropping unhealthy connection")
			return false
		}
		return true
	}
	return pc, nil
}

// NewPostgresDB opens the pool and waits for the first successful ping.
func NewPostgresDB(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*PostgresDB, error) {
	pc, err := PoolConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach database %s:%s: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	logger.Info().
		Int32("maxConns", pc.MaxConns).
		Str("database", cfg.Database.DBName).
		Msg("Database pool ready")
	return &PostgresDB{Pool: pool, logger: logger}, nil
}

// Ping is used by the health endpoint.
func (d *PostgresDB) Ping(ctx context.Context) error {
	if d == nil || d.Pool == nil {
		return fmt.Errorf("database not connected")
	}
	return d.Pool.Ping(ctx)
}

func (d *PostgresDB) Close() {
	if d.Pool != nil {
		d.Pool.Close()
		d.logger.Info().Msg("Database pool closed")
	}
}

// TxBeginner is satisfied by *pgxpool.Pool and pgx.Tx.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TransactionFn func(ctx context.Context, tx pgx.Tx) error

// WithTransaction commits when fn succeeds and rolls back on error or panic.
// A context without a deadline gets txTimeout.
func WithTransaction(ctx context.Context, b TxBeginner, fn TransactionFn) (err error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txTimeout)
		defer cancel()
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (d *PostgresDB) WithTransaction(ctx context.Context, fn TransactionFn) error {
	return WithTransaction(ctx, d.Pool, fn)
}
