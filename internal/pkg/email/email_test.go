package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestTemplateNotifierRendersAndEscapes(t *testing.T) {
	rec := &recordingSender{}
	n := NewTemplateNotifier(rec, "Psych LMS", zerolog.Nop())
	to := Recipient{Name: "<b>Ada</b>", Email: "ada@example.com"}

	require.NoError(t, n.Welcome(context.Background(), to))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "Welcome to Psych LMS", rec.sent[0].Subject)
	assert.Equal(t, "ada@example.com", rec.sent[0].To)
	assert.Contains(t, rec.sent[0].HTML, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.NotContains(t, rec.sent[0].HTML, "<b>Ada</b>")
}

func TestTemplateNotifierContent(t *testing.T) {
	rec := &recordingSender{}
	n := NewTemplateNotifier(rec, "Psych LMS", zerolog.Nop())
	to := Recipient{Name: "Ada", Email: "ada@example.com"}

	joinURL := "https://zoom.example/j/1"
	session := &models.WorkshopSession{Title: "Week 1", StartsAt: time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC), JoinURL: &joinURL}
	workshop := &models.Workshop{Title: "Mindfulness", Instructor: "Dr. Smith"}
	require.NoError(t, n.SessionReminder(context.Background(), to, workshop, session))
	assert.Contains(t, rec.sent[0].HTML, "Tue, 04 Mar 2025 18:00 UTC")
	assert.Contains(t, rec.sent[0].HTML, joinURL)

	require.NoError(t, n.WorkshopEnrollment(context.Background(), to, workshop))
	assert.Contains(t, rec.sent[1].HTML, "with Dr. Smith")

	grade, feedback := 87, "Well argued"
	require.NoError(t, n.HomeworkGraded(context.Background(), to, &models.Homework{Title: "Thought record", Grade: &grade, Feedback: &feedback}))
	assert.Contains(t, rec.sent[2].HTML, "87/100")
	assert.Contains(t, rec.sent[2].HTML, "Well argued")
}

func TestNewSenderDrivers(t *testing.T) {
	assert.IsType(t, &LogSender{}, NewSender(Config{Driver: DriverLog}, zerolog.Nop()))
	assert.IsType(t, &LogSender{}, NewSender(Config{Driver: "pigeon"}, zerolog.Nop()))
	assert.IsType(t, &SMTPSender{}, NewSender(Config{Driver: DriverSMTP}, zerolog.Nop()))
	assert.IsType(t, &SendGridSender{}, NewSender(Config{Driver: DriverSendGrid}, zerolog.Nop()))
}

func TestSMTPBuildMessage(t *testing.T) {
	s := &SMTPSender{config: Config{FromName: "LMS", FromAddress: "noreply@lms.local"}}
	raw := string(s.buildMessage(Message{To: "a@x.com", ToName: "Ada", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Contains(t, raw, "From: LMS <noreply@lms.local>\r\n")
	assert.Contains(t, raw, "To: Ada <a@x.com>\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>x</p>")
}

func TestSendGridSender(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendGridEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("sg-key", "LMS", "noreply@lms.local", zerolog.Nop())
	s.host = srv.URL
	require.NoError(t, s.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", HTML: "<p>x</p>"}))
	require.NotNil(t, got)
	assert.Equal(t, "noreply@lms.local", got["from"].(map[string]interface{})["email"])

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer failing.Close()
	s.host = failing.URL
	assert.Error(t, s.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", HTML: "x"}))
}
