package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/dberrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

// Revoked rows are kept this long so reuse of a rotated token still reports
// ErrTokenRevoked instead of ErrTokenNotFound.
const revokedRetention = 30 * 24 * time.Hour

// TokenRepository persists refresh tokens. Only the SHA-256 digest of a token
// is stored.
type TokenRepository struct {
	db  *pgxpool.Pool
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now: time.Now,
	}
}

func digestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *TokenRepository) StoreRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	query, args, err := r.sb.Insert("refresh_tokens").
		Columns("token_hash", "user_id", "expires_at", "created_at").
		Values(digestToken(token), userID, expiresAt, r.now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build store refresh token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "refresh_tokens_token_hash_key"):
			logger.Warn().Int64("userID", userID).Msg("Refresh token digest collision")
			return apperrors.ErrTokenInvalid
		case dberrors.IsForeignKeyViolation(err, ""):
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error storing refresh token")
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RefreshTokenOwner(ctx context.Context, token string) (int64, error) {
	query, args, err := r.sb.Select("user_id", "expires_at", "revoked_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token_hash": digestToken(token)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build refresh token lookup: %w", err)
	}

	var (
		userID    int64
		expiresAt time.Time
		revokedAt *time.Time
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&userID, &expiresAt, &revokedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error looking up refresh token")
		return 0, fmt.Errorf("look up refresh token: %w", err)
	}

	switch {
	case revokedAt != nil:
		return 0, apperrors.ErrTokenRevoked
	case !expiresAt.After(r.now()):
		return 0, apperrors.ErrTokenExpired
	}
	return userID, nil
}

func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	query, args, err := r.sb.Update("refresh_tokens").
		Set("revoked_at", squirrel.Expr("COALESCE(revoked_at, ?)", r.now())).
		Where(squirrel.Eq{"token_hash": digestToken(token)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke refresh token query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error revoking refresh token")
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// RevokeAllUserTokens signs a user out everywhere. Used after password changes.
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	query, args, err := r.sb.Update("refresh_tokens").
		Set("revoked_at", r.now()).
		Where(squirrel.Eq{"user_id": userID, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke user tokens query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error revoking user tokens")
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// PurgeStaleTokens deletes expired tokens and tokens revoked more than
// revokedRetention ago.
func (r *TokenRepository) PurgeStaleTokens(ctx context.Context) (int64, error) {
	now := r.now()
	query, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": now},
			squirrel.Lt{"revoked_at": now.Add(-revokedRetention)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge tokens query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error purging refresh tokens")
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
