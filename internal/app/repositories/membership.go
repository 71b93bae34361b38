package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/db"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/dberrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// memberTable describes a user membership join table keyed by (owner, user).
type memberTable struct {
	table       string
	ownerCol    string
	userCol     string
	joinedCol   string
	parent      string
	capacityCol string
	notFound    error
}

var (
	workshopAttendees = memberTable{
		table:       "workshop_attendees",
		ownerCol:    "workshop_id",
		userCol:     "user_id",
		joinedCol:   "joined_at",
		parent:      "workshops",
		capacityCol: "max_participants",
		notFound:    apperrors.ErrWorkshopNotFound,
	}
	courseStudents = memberTable{
		table:       "course_students",
		ownerCol:    "course_id",
		userCol:     "user_id",
		joinedCol:   "enrolled_at",
		parent:      "courses",
		capacityCol: "max_students",
		notFound:    apperrors.ErrCourseNotFound,
	}
	userAchievements = memberTable{
		table:     "user_achievements",
		ownerCol:  "achievement_id",
		userCol:   "user_id",
		joinedCol: "awarded_at",
		parent:    "achievements",
		notFound:  apperrors.ErrAchievementNotFound,
	}
)

func (m memberTable) keyEq(ownerID, userID int64) squirrel.Eq {
	return squirrel.Eq{m.ownerCol: ownerID, m.userCol: userID}
}

func (m memberTable) insertSQL(sb squirrel.StatementBuilderType, ownerID, userID int64) (string, []interface{}, error) {
	return sb.Insert(m.table).
		Columns(m.ownerCol, m.userCol).
		Values(ownerID, userID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
}

func (m memberTable) deleteSQL(sb squirrel.StatementBuilderType, ownerID, userID int64) (string, []interface{}, error) {
	return sb.Delete(m.table).Where(m.keyEq(ownerID, userID)).ToSql()
}

func (m memberTable) existsSQL(sb squirrel.StatementBuilderType, ownerID, userID int64) (string, []interface{}, error) {
	return sb.Select("1").
		From(m.table).
		Where(m.keyEq(ownerID, userID)).
		Prefix("SELECT EXISTS(").
		Suffix(")").
		ToSql()
}

func (m memberTable) countSQL(sb squirrel.StatementBuilderType, ownerID int64) (string, []interface{}, error) {
	return sb.Select("COUNT(*)").From(m.table).Where(squirrel.Eq{m.ownerCol: ownerID}).ToSql()
}

func (m memberTable) listSQL(sb squirrel.StatementBuilderType, ownerID int64) (string, []interface{}, error) {
	return sb.Select("u.id", "u.name", "u.email", "u.is_admin", "m."+m.joinedCol).
		From(m.table + " m").
		Join("users u ON u.id = m." + m.userCol).
		Where(squirrel.Eq{"m." + m.ownerCol: ownerID}).
		OrderBy("m." + m.joinedCol + " ASC").
		ToSql()
}

// lockParentSQL locks the parent row for the rest of the transaction and
// reads its capacity (NULL when the relation has none).
func (m memberTable) lockParentSQL(sb squirrel.StatementBuilderType, ownerID int64) (string, []interface{}, error) {
	capacity := "NULL::int"
	if m.capacityCol != "" {
		capacity = m.capacityCol
	}
	return sb.Select(capacity).
		From(m.parent).
		Where(squirrel.Eq{"id": ownerID}).
		Suffix("FOR UPDATE").
		ToSql()
}

// add inserts the membership if absent. A no-op re-add returns false even when
// the relation is at capacity. A new member beyond capacity fails with
// ErrCapacityReached.
func (m memberTable) add(ctx context.Context, pool db.TxBeginner, sb squirrel.StatementBuilderType, ownerID, userID int64) (bool, error) {
	added := false
	err := db.WithTransaction(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := m.lockParentSQL(sb, ownerID)
		if err != nil {
			return fmt.Errorf("failed to build lock query: %w", err)
		}
		var capacity *int
		if err := tx.QueryRow(ctx, sql, args...).Scan(&capacity); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return m.notFound
			}
			return fmt.Errorf("error locking %s row: %w", m.parent, err)
		}

		exists, err := m.isMember(ctx, tx, sb, ownerID, userID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		if capacity != nil && *capacity > 0 {
			count, err := m.count(ctx, tx, sb, ownerID)
			if err != nil {
				return err
			}
			if count >= *capacity {
				return apperrors.ErrCapacityReached
			}
		}

		sql, args, err = m.insertSQL(sb, ownerID, userID)
		if err != nil {
			return fmt.Errorf("failed to build insert member query: %w", err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			if dberrors.IsForeignKeyViolation(err, "") {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("error inserting into %s: %w", m.table, err)
		}
		added = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrCapacityReached) && !apperrors.IsNotFound(err) {
			logger.Error().Err(err).Str("table", m.table).Int64("ownerID", ownerID).Int64("userID", userID).Msg("Error adding member")
		}
		return false, err
	}
	return added, nil
}

func (m memberTable) remove(ctx context.Context, q querier, sb squirrel.StatementBuilderType, ownerID, userID int64) (bool, error) {
	sql, args, err := m.deleteSQL(sb, ownerID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to build delete member query: %w", err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", m.table).Int64("ownerID", ownerID).Int64("userID", userID).Msg("Error removing member")
		return false, fmt.Errorf("error deleting from %s: %w", m.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (m memberTable) isMember(ctx context.Context, q querier, sb squirrel.StatementBuilderType, ownerID, userID int64) (bool, error) {
	sql, args, err := m.existsSQL(sb, ownerID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to build member exists query: %w", err)
	}
	var exists bool
	if err := q.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking %s membership: %w", m.table, err)
	}
	return exists, nil
}

func (m memberTable) count(ctx context.Context, q querier, sb squirrel.StatementBuilderType, ownerID int64) (int, error) {
	sql, args, err := m.countSQL(sb, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to build member count query: %w", err)
	}
	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting %s: %w", m.table, err)
	}
	return n, nil
}

func (m memberTable) list(ctx context.Context, q querier, sb squirrel.StatementBuilderType, ownerID int64) ([]*models.Member, error) {
	sql, args, err := m.listSQL(sb, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to build member list query: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", m.table).Int64("ownerID", ownerID).Msg("Error listing members")
		return nil, fmt.Errorf("error listing %s: %w", m.table, err)
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		var mem models.Member
		if err := rows.Scan(&mem.UserID, &mem.Name, &mem.Email, &mem.IsAdmin, &mem.JoinedAt); err != nil {
			return nil, fmt.Errorf("error scanning member row: %w", err)
		}
		members = append(members, &mem)
	}
	return members, rows.Err()
}
