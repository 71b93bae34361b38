package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/dberrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

// userColumns never includes the password column.
var userColumns = []string{"id", "name", "email", "is_admin", "last_login_at", "created_at", "updated_at"}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a user and fills ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "is_admin").
		Values(user.Name, user.Email, user.Password, user.IsAdmin).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByEmailWithPassword loads the user including the password hash. Used by login only.
func (r *UserRepository) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, userColumns...), "password")...).
		From("users").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u := &models.User{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row with password")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return u, nil
}

// GetPasswordHash returns the stored bcrypt hash of a user.
func (r *UserRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	sql, args, err := r.sb.Select("password").From("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build get password query: %w", err)
	}
	var hash string
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrUserNotFound
		}
		return "", fmt.Errorf("error retrieving password: %w", err)
	}
	return hash, nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").From("users").Where(squirrel.Eq{"email": email}).
		Prefix("SELECT EXISTS(").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build email exists query: %w", err)
	}
	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

func userSearch(q string) squirrel.Sqlizer {
	pattern := "%" + strings.TrimSpace(q) + "%"
	return squirrel.Or{
		squirrel.ILike{"name": pattern},
		squirrel.ILike{"email": pattern},
	}
}

// List returns one page of users and the total matching count.
func (r *UserRepository) List(ctx context.Context, filter dto.UserListFilter) ([]*models.User, int64, error) {
	countBuilder := r.sb.Select("COUNT(*)").From("users")
	sqlBuilder := r.sb.Select(userColumns...).From("users")
	if strings.TrimSpace(filter.Query) != "" {
		countBuilder = countBuilder.Where(userSearch(filter.Query))
		sqlBuilder = sqlBuilder.Where(userSearch(filter.Query))
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count users query")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}
	if total == 0 {
		return []*models.User{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := sqlBuilder.OrderBy("id ASC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update writes name, email and admin flag.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Update("users").
		Set("name", user.Name).
		Set("email", user.Email).
		Set("is_admin", user.IsAdmin).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execByID(ctx, id, r.sb.Update("users").
		Set("password", passwordHash).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.execByID(ctx, id, r.sb.Update("users").
		Set("last_login_at", time.Now()).
		Where(squirrel.Eq{"id": id}))
}

// Delete removes a user. Memberships, tokens, homework and messages cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.execByID(ctx, id, r.sb.Delete("users").Where(squirrel.Eq{"id": id}))
}

func (r *UserRepository) execByID(ctx context.Context, id int64, b squirrel.Sqlizer) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
