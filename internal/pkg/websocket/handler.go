package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
)

// ReadMarker marks a message read on behalf of its recipient.
type ReadMarker interface {
	MarkRead(ctx context.Context, userID, messageID int64) (*models.Message, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Connections are authenticated by bearer token, not by cookie.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler for WebSocket connections
type Handler struct {
	hub    *Hub
	reader ReadMarker
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler. reader may be nil, in which
// case read receipts sent by clients are ignored.
func NewHandler(hub *Hub, reader ReadMarker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		reader: reader,
		logger: logger,
	}
}

// HandleConnection godoc
// @Summary Open the real-time message stream
// @Description Upgrades to a WebSocket. New direct and workshop messages for the caller are pushed as {"type":"message","message":{...}}. Clients may send {"type":"read","messageId":N}. Browsers pass the access token in the token query parameter.
// @Tags messages
// @Security BearerAuth
// @Param token query string false "Access token when the Authorization header cannot be set"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Router /ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		reader: h.reader,
		logger: h.logger,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
