package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories/repotest"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/meeting"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type sentMail struct {
	kind string
	to   email.Recipient
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) record(kind string, to email.Recipient) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: kind, to: to})
	return nil
}

func (n *recordingNotifier) Welcome(ctx context.Context, to email.Recipient) error {
	return n.record("welcome", to)
}

func (n *recordingNotifier) WorkshopEnrollment(ctx context.Context, to email.Recipient, w *models.Workshop) error {
	return n.record("enrollment", to)
}

func (n *recordingNotifier) SessionReminder(ctx context.Context, to email.Recipient, w *models.Workshop, s *models.WorkshopSession) error {
	return n.record("reminder", to)
}

func (n *recordingNotifier) HomeworkGraded(ctx context.Context, to email.Recipient, hw *models.Homework) error {
	return n.record("graded", to)
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.kind == kind {
			c++
		}
	}
	return c
}

type published struct {
	userIDs []int64
	msg     *models.Message
}

type recordingPublisher struct {
	mu  sync.Mutex
	out []published
}

func (p *recordingPublisher) Publish(userIDs []int64, msg *models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, published{userIDs: userIDs, msg: msg})
}

type fakeMeetings struct {
	created int
}

func (f *fakeMeetings) CreateMeeting(ctx context.Context, req meeting.Request) (*meeting.Meeting, error) {
	f.created++
	return &meeting.Meeting{ID: "85746065432", JoinURL: "https://zoom.example/j/85746065432"}, nil
}

func (f *fakeMeetings) Signature(meetingNumber string, role int) (string, error) {
	return "sig-" + meetingNumber, nil
}

func (f *fakeMeetings) SDKKey() string { return "sdk-key" }

type fixture struct {
	store     *repotest.Store
	svc       *Services
	notifier  *recordingNotifier
	publisher *recordingPublisher
	meetings  *fakeMeetings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	f := &fixture{
		store:     store,
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		meetings:  &fakeMeetings{},
	}
	f.svc = NewServices(Deps{
		Users:        store.Users(),
		Tokens:       store.Tokens(),
		Courses:      store.Courses(),
		Workshops:    store.Workshops(),
		Homework:     store.Homework(),
		Achievements: store.Achievements(),
		Messages:     store.Messages(),
		JWT: auth.NewJWTService(auth.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenExp:  time.Hour,
			RefreshTokenExp: 24 * time.Hour,
			TokenIssuer:     "lms-test",
		}),
		Notifier:  f.notifier,
		Meetings:  f.meetings,
		Publisher: f.publisher,
		Timezone:  "UTC",
		Logger:    zerolog.Nop(),
	})
	return f
}

// user creates a user directly through the admin path.
func (f *fixture) user(t *testing.T, name, mail string, admin bool) *models.User {
	t.Helper()
	u, err := f.svc.User.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: name, Email: mail, Password: "pw123456", IsAdmin: admin,
	})
	require.NoError(t, err)
	return u
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
