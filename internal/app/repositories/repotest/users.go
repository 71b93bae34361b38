package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// UserRepository is an in-memory IUserRepository.
type UserRepository struct{ s *Store }

func publicUser(u *models.User) *models.User {
	cp := *u
	cp.Password = ""
	return &cp
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	now := time.Now()
	user.ID = r.s.id()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return publicUser(u), nil
}

func (r *UserRepository) findByEmail(email string) (*models.User, bool) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.findByEmail(email)
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return publicUser(u), nil
}

func (r *UserRepository) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.findByEmail(email)
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return "", apperrors.ErrUserNotFound
	}
	return u.Password, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.findByEmail(email)
	return ok, nil
}

func (r *UserRepository) List(ctx context.Context, filter dto.UserListFilter) ([]*models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if filter.Query == "" || contains(u.Name, filter.Query) || contains(u.Email, filter.Query) {
			out = append(out, publicUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Page, filter.Size), int64(len(out)), nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if other, ok := r.findByEmail(user.Email); ok && other.ID != user.ID {
		return apperrors.ErrEmailAlreadyExists
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.IsAdmin = user.IsAdmin
	existing.UpdatedAt = time.Now()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = passwordHash
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	r.s.deleteUser(id)
	return nil
}

// TokenRepository is an in-memory ITokenRepository.
type TokenRepository struct{ s *Store }

func (r *TokenRepository) StoreRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if _, dup := r.s.tokens[token]; dup {
		return apperrors.ErrTokenInvalid
	}
	r.s.tokens[token] = &refreshToken{userID: userID, expiry: expiresAt}
	return nil
}

func (r *TokenRepository) RefreshTokenOwner(ctx context.Context, token string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	switch {
	case !ok:
		return 0, apperrors.ErrTokenNotFound
	case t.revoked:
		return 0, apperrors.ErrTokenRevoked
	case time.Now().After(t.expiry):
		return 0, apperrors.ErrTokenExpired
	}
	return t.userID, nil
}

func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	return nil
}

func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (r *TokenRepository) PurgeStaleTokens(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.tokens {
		if t.revoked || time.Now().After(t.expiry) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}
