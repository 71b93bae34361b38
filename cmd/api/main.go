package main

import (
	"context"
	"os"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
	"github.com/destinpq/destinpq-lms-sub000/internal/server"
)

// @title Psychology Workshop LMS API
// @version 1.0
// @description REST API for courses, workshops, homework, achievements and messaging of a psychology training platform.

// @contact.name API Support
// @contact.email support@lms.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token in the form "Bearer {token}"

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
