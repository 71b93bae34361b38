package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{Name: "Ada", Email: "A@X.com ", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", reg.User.Email)
	assert.False(t, reg.User.IsAdmin)
	assert.Empty(t, reg.User.Password)
	assert.NotEmpty(t, reg.Token.AccessToken)
	assert.NotEmpty(t, reg.Token.RefreshToken)
	assert.Equal(t, "Bearer", reg.Token.TokenType)
	assert.Equal(t, 1, f.notifier.count("welcome"))

	login, err := f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLoginAt)
}

func TestRegisterRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{Name: "Ada", Email: "a@x.com", Password: "password"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.Auth.Register(ctx, &dto.RegisterRequest{Name: "Ada", Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)
	_, err = f.svc.Auth.Register(ctx, &dto.RegisterRequest{Name: "Bob", Email: "a@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "Ada", "a@x.com", false)

	_, unknown := f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "nobody@x.com", Password: "pw123456"})
	_, wrong := f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "wrong-pass1"})

	require.Error(t, unknown)
	require.Error(t, wrong)
	assert.ErrorIs(t, unknown, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrong, apperrors.ErrInvalidCredentials)
	assert.Equal(t, unknown.Error(), wrong.Error())
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{Name: "Ada", Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)

	next, err := f.svc.Auth.RefreshToken(ctx, reg.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Token.RefreshToken, next.RefreshToken)

	_, err = f.svc.Auth.RefreshToken(ctx, reg.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	require.NoError(t, f.svc.Auth.Logout(ctx, next.RefreshToken))
	_, err = f.svc.Auth.RefreshToken(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	assert.NoError(t, f.svc.Auth.Logout(ctx, "unknown"))
	_, err = f.svc.Auth.RefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)

	err := f.svc.User.ChangePassword(ctx, u.ID, &dto.ChangePasswordRequest{CurrentPassword: "nope1234", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, f.svc.User.ChangePassword(ctx, u.ID, &dto.ChangePasswordRequest{CurrentPassword: "pw123456", NewPassword: "newpass123"}))

	_, err = f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "newpass123"})
	assert.NoError(t, err)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "Ada", "a@x.com", false)
	f.user(t, "Bob", "b@x.com", false)

	_, err := f.svc.User.UpdateProfile(ctx, a.ID, &dto.UpdateProfileRequest{Name: "Ada L", Email: "b@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	updated, err := f.svc.User.UpdateProfile(ctx, a.ID, &dto.UpdateProfileRequest{Name: "Ada L", Email: "ada@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)
	assert.Equal(t, "ada@x.com", updated.Email)

	page, err := f.svc.User.ListUsers(ctx, dto.UserListFilter{Query: "ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Pagination.TotalItems)
}
