package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/bootstrap"
	"github.com/destinpq/destinpq-lms-sub000/internal/config"
	"github.com/destinpq/destinpq-lms-sub000/internal/db"
)

// Server owns the HTTP listener and the background workers started with it.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	database *db.PostgresDB
	deps     *bootstrap.Dependencies
	logger   zerolog.Logger
	http     *http.Server
}

// NewServer loads config, connects to the database and wires dependencies.
func NewServer(ctx context.Context) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger("")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("dependencies: %w", err)
	}

	return &Server{
		config:   cfg,
		router:   bootstrap.SetupRouter(cfg, deps, lgr),
		database: database,
		deps:     deps,
		logger:   lgr,
	}, nil
}

// Run starts the background workers and the HTTP server, then blocks until
// the server fails or the process is signalled.
func (s *Server) Run() error {
	s.deps.Hub.Start()
	if s.deps.Reminders != nil {
		if err := s.deps.Reminders.Start(); err != nil {
			s.deps.Hub.Stop()
			return err
		}
	}
	if err := s.deps.TokenPurge.Start(); err != nil {
		s.logger.Warn().Err(err).Msg("Refresh token purge disabled")
	}

	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting LMS API")

	// WriteTimeout stays zero: websocket connections are hijacked and manage
	// their own deadlines.
	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Shutdown requested")
	}

	if err := s.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown drains HTTP, stops the jobs and the hub, then closes the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shutdownError := false

	if s.http != nil {
		s.logger.Info().Msg("Draining HTTP connections")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server stopped")
		}
	}

	if s.deps.Reminders != nil {
		s.deps.Reminders.Stop()
	}
	s.deps.TokenPurge.Stop()
	s.deps.Hub.Stop()

	if s.database != nil {
		s.logger.Info().Msg("Closing PostgreSQL pool")
		s.database.Close()
	}

	s.logger.Info().Msg("Shutdown complete")
	if shutdownError {
		return errors.New("shutdown finished with errors")
	}
	return nil
}
