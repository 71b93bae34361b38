// Command lmsctl runs administrative tasks against the LMS database.
package main

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	"github.com/destinpq/destinpq-lms-sub000/internal/bootstrap"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
	"github.com/destinpq/destinpq-lms-sub000/internal/seed"
)

func main() {
	app := newApp(&env{
		open:         openDatabase,
		readPassword: term.ReadPassword,
		out:          os.Stdout,
	})
	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("lmsctl failed")
		os.Exit(1)
	}
}

// openDatabase connects with the configured settings. Migrations run only
// through the migrate command.
func openDatabase(ctx context.Context, configPath string) (*runtime, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Database.AutoMigrate = false
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}
	repos := repositories.NewRepositories(database.Pool)
	return &runtime{
		repos: seed.Repositories{
			Users:        repos.UserRepository,
			Courses:      repos.CourseRepository,
			Workshops:    repos.WorkshopRepository,
			Achievements: repos.AchievementRepository,
		},
		migrate: func(ctx context.Context) (int, error) {
			return bootstrap.RunMigrations(ctx, database.Pool, lgr)
		},
		close:  database.Close,
		logger: lgr,
	}, nil
}
