package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
)

// Event types pushed to clients.
const (
	EventMessage = "message"
	EventRead    = "read"
)

// Event is the frame written to a connected client.
type Event struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message,omitempty"`
}

type delivery struct {
	userIDs []int64
	data    []byte
}

// Hub tracks the open connections of every user and fans events out to them.
// A user may hold several connections (one per tab or device).
type Hub struct {
	clients map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// guards clients for ClientCount; the Run loop is the only writer
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance. Call Start before use.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Start runs the hub loop in its own goroutine.
func (h *Hub) Start() {
	go h.run()
}

// Stop closes every connection and waits for the hub loop to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		<-h.stopped
	})
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.deliver:
			h.deliverEvent(d)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Debug().
		Int64("userID", client.userID).
		Int("connections", len(h.clients[client.userID])).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Debug().Int64("userID", client.userID).Msg("Client unregistered")
}

func (h *Hub) deliverEvent(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for _, userID := range d.userIDs {
		for client := range h.clients[userID] {
			select {
			case client.send <- d.data:
				sent++
			default:
				// Slow consumer; drop the connection, the client reconnects.
				h.logger.Warn().Int64("userID", userID).Msg("Dropping slow websocket client")
				h.removeLocked(client)
			}
		}
	}
	h.logger.Debug().Int("recipients", len(d.userIDs)).Int("frames", sent).Msg("Event delivered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// Publish pushes a stored message to every open connection of the given users.
// Users without a connection are skipped. Publish never blocks on a stopped hub.
func (h *Hub) Publish(userIDs []int64, msg *models.Message) {
	h.send(userIDs, Event{Type: EventMessage, Message: msg})
}

func (h *Hub) send(userIDs []int64, ev Event) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("type", ev.Type).Msg("Failed to marshal websocket event")
		return
	}
	select {
	case h.deliver <- delivery{userIDs: userIDs, data: data}:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections held by a user.
func (h *Hub) ClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
