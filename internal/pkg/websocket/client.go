package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control frames.
	maxMessageSize = 4 * 1024
)

// inbound is a frame sent by a client, e.g. {"type":"read","messageId":12}.
type inbound struct {
	Type      string `json:"type"`
	MessageID int64  `json:"messageId"`
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	reader ReadMarker
	logger zerolog.Logger
}

// readPump drains the connection, answering pongs and read receipts.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Int64("userID", c.userID).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Int64("userID", c.userID).Msg("WebSocket closed")
			}
			return
		}

		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug().Err(err).Int64("userID", c.userID).Msg("Ignoring malformed client frame")
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame inbound) {
	switch frame.Type {
	case EventRead:
		if c.reader == nil || frame.MessageID <= 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		msg, err := c.reader.MarkRead(ctx, c.userID, frame.MessageID)
		if err != nil {
			c.logger.Debug().Err(err).Int64("userID", c.userID).Int64("messageID", frame.MessageID).Msg("Read receipt rejected")
			return
		}
		c.hub.send([]int64{c.userID}, Event{Type: EventRead, Message: msg})
	default:
		c.logger.Debug().Str("type", frame.Type).Msg("Ignoring unknown client frame")
	}
}

// writePump pumps events from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
