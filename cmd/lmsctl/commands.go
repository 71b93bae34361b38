package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/destinpq/destinpq-lms-sub000/internal/seed"
)

// runtime is an open database plus what the commands need from it.
type runtime struct {
	repos   seed.Repositories
	migrate func(ctx context.Context) (int, error)
	close   func()
	logger  zerolog.Logger
}

type env struct {
	open         func(ctx context.Context, configPath string) (*runtime, error)
	readPassword func(fd int) ([]byte, error)
	out          io.Writer
}

func newApp(e *env) *cli.App {
	return &cli.App{
		Name:  "lmsctl",
		Usage: "administer the psychology workshop LMS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: e.withRuntime(e.migrate),
			},
			{
				Name:  "seed",
				Usage: "load demo accounts, a course, a workshop and the achievements catalogue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "admin-password",
						Usage:   "password for " + seed.AdminEmail,
						EnvVars: []string{"SEED_ADMIN_PASSWORD"},
						Value:   "admin1234",
					},
					&cli.StringFlag{
						Name:    "user-password",
						Usage:   "password for " + seed.UserEmail,
						EnvVars: []string{"SEED_USER_PASSWORD"},
						Value:   "student1234",
					},
				},
				Action: e.withRuntime(e.seed),
			},
			{
				Name:  "create-admin",
				Usage: "promote an existing user to admin or create a new admin",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "display name for a new account", Value: "Administrator"},
					&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "password; prompted when omitted"},
				},
				Action: e.withRuntime(e.createAdmin),
			},
		},
	}
}

func (e *env) withRuntime(fn func(c *cli.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := e.open(c.Context, c.String("config"))
		if err != nil {
			return err
		}
		defer rt.close()
		return fn(c, rt)
	}
}

func (e *env) migrate(c *cli.Context, rt *runtime) error {
	n, err := rt.migrate(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "applied %d migration(s)\n", n)
	return nil
}

func (e *env) seed(c *cli.Context, rt *runtime) error {
	s := seed.NewSeeder(rt.repos, rt.logger)
	if err := s.Run(c.Context, c.String("admin-password"), c.String("user-password")); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "seeded; sign in as %s or %s\n", seed.AdminEmail, seed.UserEmail)
	return nil
}

func (e *env) createAdmin(c *cli.Context, rt *runtime) error {
	password := c.String("password")
	if password == "" {
		fmt.Fprint(e.out, "Enter password (empty keeps an existing user's password): ")
		pwd, err := e.readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(e.out)
		if err != nil {
			return err
		}
		password = strings.TrimSpace(string(pwd))
	}

	s := seed.NewSeeder(rt.repos, rt.logger)
	user, created, err := s.EnsureAdmin(c.Context, c.String("name"), c.String("email"), password)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(e.out, "created admin %s (id %d)\n", user.Email, user.ID)
	} else {
		fmt.Fprintf(e.out, "%s (id %d) is an admin\n", user.Email, user.ID)
	}
	return nil
}
