package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/dberrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

var achievementColumns = []string{"a.id", "a.title", "a.description", "a.type", "a.icon", "a.created_at", "a.updated_at"}

// AchievementRepository handles the achievement catalogue and awards
type AchievementRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAchievementRepository creates a new AchievementRepository
func NewAchievementRepository(db *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAchievement(row pgx.Row, extra ...any) (*models.Achievement, error) {
	a := &models.Achievement{}
	dest := append([]any{&a.ID, &a.Title, &a.Description, &a.Type, &a.Icon, &a.CreatedAt, &a.UpdatedAt}, extra...)
	return a, row.Scan(dest...)
}

// Create inserts an achievement. Titles are unique.
func (r *AchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	sql, args, err := r.sb.Insert("achievements").
		Columns("title", "description", "type", "icon").
		Values(a.Title, a.Description, a.Type, a.Icon).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create achievement query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "achievements_title_key") {
			return apperrors.NewConflictError("an achievement with this title already exists")
		}
		logger.Error().Err(err).Str("title", a.Title).Msg("Error executing create achievement query")
		return fmt.Errorf("error creating achievement: %w", err)
	}
	return nil
}

// GetByID returns a single achievement.
func (r *AchievementRepository) GetByID(ctx context.Context, id int64) (*models.Achievement, error) {
	sql, args, err := r.sb.Select(achievementColumns...).From("achievements a").Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get achievement query: %w", err)
	}
	a, err := scanAchievement(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("error retrieving achievement: %w", err)
	}
	return a, nil
}

// List returns the whole catalogue.
func (r *AchievementRepository) List(ctx context.Context) ([]*models.Achievement, error) {
	return r.query(ctx, r.sb.Select(achievementColumns...).From("achievements a").OrderBy("a.title ASC"), false)
}

// ListByUser returns the achievements awarded to a user with the award time.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Achievement, error) {
	return r.query(ctx, r.sb.Select(append(append([]string{}, achievementColumns...), "ua.awarded_at")...).
		From("achievements a").
		Join("user_achievements ua ON ua.achievement_id = a.id").
		Where(squirrel.Eq{"ua.user_id": userID}).
		OrderBy("ua.awarded_at DESC"), true)
}

func (r *AchievementRepository) query(ctx context.Context, b squirrel.SelectBuilder, withAwarded bool) ([]*models.Achievement, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list achievements query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list achievements query")
		return nil, fmt.Errorf("error listing achievements: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Achievement, 0)
	for rows.Next() {
		var (
			a   *models.Achievement
			err error
		)
		if withAwarded {
			var awarded time.Time
			a, err = scanAchievement(rows, &awarded)
			a.AwardedAt = &awarded
		} else {
			a, err = scanAchievement(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("error scanning achievement row: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Update writes every mutable column.
func (r *AchievementRepository) Update(ctx context.Context, a *models.Achievement) error {
	sql, args, err := r.sb.Update("achievements").
		Set("title", a.Title).
		Set("description", a.Description).
		Set("type", a.Type).
		Set("icon", a.Icon).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update achievement query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrAchievementNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "achievements_title_key") {
			return apperrors.NewConflictError("an achievement with this title already exists")
		}
		return fmt.Errorf("error updating achievement: %w", err)
	}
	return nil
}

// Delete removes an achievement and its awards.
func (r *AchievementRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("achievements").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete achievement query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("achievementID", id).Msg("Error executing delete achievement query")
		return fmt.Errorf("error deleting achievement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAchievementNotFound
	}
	return nil
}

// Award gives the achievement to a user. Awarding twice is a no-op.
func (r *AchievementRepository) Award(ctx context.Context, achievementID, userID int64) (bool, error) {
	return userAchievements.add(ctx, r.db, r.sb, achievementID, userID)
}

// Revoke takes the achievement away. Revoking a non-holder is a no-op.
func (r *AchievementRepository) Revoke(ctx context.Context, achievementID, userID int64) (bool, error) {
	return userAchievements.remove(ctx, r.db, r.sb, achievementID, userID)
}

// ListHolders lists the users holding the achievement.
func (r *AchievementRepository) ListHolders(ctx context.Context, achievementID int64) ([]*models.Member, error) {
	return userAchievements.list(ctx, r.db, r.sb, achievementID)
}
