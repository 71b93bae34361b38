package seed

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/repositories/repotest"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newSeeder(store *repotest.Store) *Seeder {
	s := NewSeeder(Repositories{
		Users:        store.Users(),
		Courses:      store.Courses(),
		Workshops:    store.Workshops(),
		Achievements: store.Achievements(),
	}, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	s := newSeeder(store)

	require.NoError(t, s.Run(ctx, "admin1234", "student1234"))
	require.NoError(t, s.Run(ctx, "admin1234", "student1234"))

	admin, err := store.Users().GetByEmail(ctx, AdminEmail)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	courses, total, err := store.Courses().List(ctx, dto.CourseListFilter{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	modules, err := store.Courses().ListModules(ctx, courses[0].ID)
	require.NoError(t, err)
	assert.Len(t, modules, 3)

	workshops, total, err := store.Workshops().List(ctx, dto.WorkshopListFilter{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	sessions, err := store.Workshops().ListSessions(ctx, workshops[0].ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	// 2025-03-05 is a Wednesday; the first session is the next Monday evening.
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), sessions[0].StartsAt.UTC())

	attendees, err := store.Workshops().ListAttendees(ctx, workshops[0].ID)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, UserEmail, attendees[0].Email)

	achievements, err := store.Achievements().List(ctx)
	require.NoError(t, err)
	assert.Len(t, achievements, len(catalogue))
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	s := newSeeder(store)

	user := &models.User{Name: "Ann", Email: "ann@x.com"}
	require.NoError(t, store.Users().Create(ctx, user))

	promoted, created, err := s.EnsureAdmin(ctx, "Ann", "ANN@x.com ", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, promoted.ID)
	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)

	_, created, err = s.EnsureAdmin(ctx, "Root", "root@x.com", "rootpass1")
	require.NoError(t, err)
	assert.True(t, created)
	withHash, err := store.Users().GetByEmailWithPassword(ctx, "root@x.com")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(withHash.Password, "rootpass1"))

	_, _, err = s.EnsureAdmin(ctx, "Weak", "weak@x.com", "short")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}
