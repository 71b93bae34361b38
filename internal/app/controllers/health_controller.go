package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports service liveness
type HealthController struct {
	db     Pinger
	logger zerolog.Logger
}

// NewHealthController creates a new HealthController
func NewHealthController(db Pinger, logger zerolog.Logger) *HealthController {
	return &HealthController{db: db, logger: logger}
}

// Health checks the database connection
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.HealthResponse}
// @Failure 503 {object} dto.APIResponse{data=dto.HealthResponse}
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Database: "ok"}
	if c.db == nil {
		resp.Database = "unconfigured"
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
		return
	}
	if err := c.db.Ping(pingCtx); err != nil {
		c.logger.Error().Err(err).Msg("Database ping failed")
		resp.Status = "degraded"
		resp.Database = "unreachable"
		ctx.JSON(http.StatusServiceUnavailable, dto.APIResponse{
			Success:   false,
			Data:      resp,
			Timestamp: time.Now(),
		})
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
