package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var embedded embed.FS

// Source returns the SQL migrations compiled into the binary.
func Source() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrator manages database migrations
type Migrator struct {
	db     *pgxpool.Pool
	source fs.FS
	logger zerolog.Logger
}

// NewMigrator creates a new migrator reading *.sql files from source.
func NewMigrator(db *pgxpool.Pool, source fs.FS, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     db,
		source: source,
		logger: logger,
	}
}

// Migration is one versioned SQL file.
type Migration struct {
	Version  string
	Filename string
}

// List returns the migrations found in source, ordered by filename.
// "001_init.sql" has version "001".
func List(source fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(e.Name(), "_")
		out = append(out, Migration{Version: version, Filename: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Up applies every pending migration, each in its own transaction together
// with its schema_migrations row. It returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return 0, err
	}

	migrations, err := List(m.source)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range migrations {
		done, err := m.isMigrationApplied(ctx, mig.Version)
		if err != nil {
			return applied, err
		}
		if done {
			m.logger.Debug().Str("migration", mig.Filename).Msg("Migration already applied, skipping")
			continue
		}

		content, err := fs.ReadFile(m.source, path.Clean(mig.Filename))
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", mig.Filename, err)
		}

		err = pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("error executing migration %s: %w", mig.Filename, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, mig.Version, time.Now()); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", mig.Filename, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}

		applied++
		m.logger.Info().Str("migration", mig.Filename).Msg("Migration applied")
	}

	return applied, nil
}
