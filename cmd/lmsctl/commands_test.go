package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories/repotest"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/seed"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type harness struct {
	store    *repotest.Store
	out      bytes.Buffer
	prompted int
	migrated int
	closed   int
	app      func(args ...string) error
}

func newHarness(password string) *harness {
	h := &harness{store: repotest.NewStore()}
	e := &env{
		open: func(ctx context.Context, configPath string) (*runtime, error) {
			return &runtime{
				repos: seed.Repositories{
					Users:        h.store.Users(),
					Courses:      h.store.Courses(),
					Workshops:    h.store.Workshops(),
					Achievements: h.store.Achievements(),
				},
				migrate: func(context.Context) (int, error) { h.migrated++; return 1, nil },
				close:   func() { h.closed++ },
				logger:  zerolog.Nop(),
			}, nil
		},
		readPassword: func(int) ([]byte, error) {
			h.prompted++
			return []byte(password + "\n"), nil
		},
		out: &h.out,
	}
	h.app = func(args ...string) error {
		return newApp(e).Run(append([]string{"lmsctl"}, args...))
	}
	return h
}

func TestMigrate(t *testing.T) {
	h := newHarness("")
	require.NoError(t, h.app("migrate"))
	assert.Equal(t, 1, h.migrated)
	assert.Equal(t, 1, h.closed)
	assert.Contains(t, h.out.String(), "applied 1 migration(s)")
}

func TestSeedTwice(t *testing.T) {
	h := newHarness("")
	require.NoError(t, h.app("seed"))
	require.NoError(t, h.app("seed", "--admin-password", "another123"))

	admin, err := h.store.Users().GetByEmailWithPassword(context.Background(), seed.AdminEmail)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, auth.CheckPassword(admin.Password, "another123"))
}

func TestCreateAdmin(t *testing.T) {
	h := newHarness("prompted123")
	ctx := context.Background()
	existing := &models.User{Name: "Ann", Email: "ann@x.com"}
	require.NoError(t, h.store.Users().Create(ctx, existing))

	require.NoError(t, h.app("create-admin", "--email", "ann@x.com", "--password", "annpass123"))
	assert.Zero(t, h.prompted)
	u, err := h.store.Users().GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	require.NoError(t, h.app("create-admin", "--name", "Root", "--email", "root@x.com"))
	assert.Equal(t, 1, h.prompted)
	root, err := h.store.Users().GetByEmailWithPassword(ctx, "root@x.com")
	require.NoError(t, err)
	assert.True(t, root.IsAdmin)
	assert.True(t, auth.CheckPassword(root.Password, "prompted123"))
	assert.Contains(t, h.out.String(), "created admin root@x.com")
}

func TestCreateAdminNeedsEmail(t *testing.T) {
	h := newHarness("")
	assert.Error(t, h.app("create-admin"))
	assert.Zero(t, h.closed)
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("no database")
	e := &env{
		open:         func(context.Context, string) (*runtime, error) { return nil, boom },
		readPassword: func(int) ([]byte, error) { return nil, nil },
		out:          &bytes.Buffer{},
	}
	err := newApp(e).Run([]string{"lmsctl", "migrate"})
	assert.ErrorIs(t, err, boom)
}
