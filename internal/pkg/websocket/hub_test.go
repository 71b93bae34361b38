package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeReader struct {
	owner int64
}

func (f fakeReader) MarkRead(_ context.Context, userID, messageID int64) (*models.Message, error) {
	if userID != f.owner {
		return nil, apperrors.ErrPermissionDenied
	}
	return &models.Message{ID: messageID, IsRead: true}, nil
}

// serve mounts the handler behind a stub that authenticates every request as
// the user named in the "as" query parameter.
func serve(t *testing.T, hub *Hub, reader ReadMarker) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(hub, reader, zerolog.Nop())
	r.GET("/ws", func(c *gin.Context) {
		switch c.Query("as") {
		case "7":
			c.Set(middleware.ContextUserID, int64(7))
		case "8":
			c.Set(middleware.ContextUserID, int64(8))
		}
	}, h.HandleConnection)
	return httptest.NewServer(r)
}

func dial(t *testing.T, srv *httptest.Server, as string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?as=" + as
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func readEvent(t *testing.T, conn *gws.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestStartStop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Start()
	hub.Stop()
	hub.Stop()

	// Publishing to a stopped hub returns instead of blocking.
	hub.Publish([]int64{1}, &models.Message{ID: 1})
}

func TestPublishReachesOnlyRecipients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Start()
	defer hub.Stop()
	srv := serve(t, hub, nil)
	defer srv.Close()

	alice := dial(t, srv, "7")
	defer alice.Close()
	bob := dial(t, srv, "8")
	defer bob.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount(7) == 1 && hub.ClientCount(8) == 1
	}, 2*time.Second, 10*time.Millisecond)

	recipient := int64(7)
	hub.Publish([]int64{7}, &models.Message{ID: 42, SenderID: 8, RecipientID: &recipient, Content: "hello"})

	ev := readEvent(t, alice)
	assert.Equal(t, EventMessage, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, int64(42), ev.Message.ID)
	assert.Equal(t, "hello", ev.Message.Content)

	// Bob gets nothing.
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

func TestReadReceipt(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Start()
	defer hub.Stop()
	srv := serve(t, hub, fakeReader{owner: 7})
	defer srv.Close()

	conn := dial(t, srv, "7")
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "read", "messageId": 5}))
	ev := readEvent(t, conn)
	assert.Equal(t, EventRead, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, int64(5), ev.Message.ID)
	assert.True(t, ev.Message.IsRead)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Start()
	defer hub.Stop()
	srv := serve(t, hub, nil)
	defer srv.Close()

	first := dial(t, srv, "7")
	second := dial(t, srv, "7")
	defer second.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(7) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, first.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRejectsAnonymous(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Start()
	defer hub.Stop()
	srv := serve(t, hub, nil)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 401, resp.StatusCode)
}
