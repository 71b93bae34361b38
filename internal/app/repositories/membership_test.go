package repositories

import (
	"context"
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

var testSB = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func TestMemberInsertIgnoresConflicts(t *testing.T) {
	for _, m := range []memberTable{workshopAttendees, courseStudents, userAchievements} {
		sql, args, err := m.insertSQL(testSB, 7, 3)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sql, "INSERT INTO "+m.table), sql)
		assert.True(t, strings.HasSuffix(sql, "ON CONFLICT DO NOTHING"), sql)
		assert.Equal(t, []interface{}{int64(7), int64(3)}, args)
	}
}

func TestMemberLockParent(t *testing.T) {
	sql, args, err := workshopAttendees.lockParentSQL(testSB, 9)
	require.NoError(t, err)
	assert.Equal(t, "SELECT max_participants FROM workshops WHERE id = $1 FOR UPDATE", sql)
	assert.Equal(t, []interface{}{int64(9)}, args)

	sql, _, err = userAchievements.lockParentSQL(testSB, 9)
	require.NoError(t, err)
	assert.Equal(t, "SELECT NULL::int FROM achievements WHERE id = $1 FOR UPDATE", sql)
}

func TestMemberQueries(t *testing.T) {
	sql, _, err := courseStudents.existsSQL(testSB, 1, 2)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT EXISTS(")
	assert.Contains(t, sql, "FROM course_students WHERE course_id = $1 AND user_id = $2")

	sql, _, err = courseStudents.deleteSQL(testSB, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM course_students WHERE course_id = $1 AND user_id = $2", sql)

	sql, _, err = workshopAttendees.listSQL(testSB, 1)
	require.NoError(t, err)
	assert.Contains(t, sql, "JOIN users u ON u.id = m.user_id")
	assert.Contains(t, sql, "ORDER BY m.joined_at ASC")

	sql, _, err = workshopAttendees.countSQL(testSB, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM workshop_attendees WHERE workshop_id = $1", sql)
}

// scriptedTx answers the membership transaction queries from fixed values.
type scriptedTx struct {
	pgx.Tx
	parentFound bool
	capacity    *int
	member      bool
	count       int
	inserted    bool
	committed   bool
}

type scriptedRow struct {
	scan func(dest ...any) error
}

func (r scriptedRow) Scan(dest ...any) error { return r.scan(dest...) }

func (tx *scriptedTx) Begin(ctx context.Context) (pgx.Tx, error) { return tx, nil }
func (tx *scriptedTx) Commit(ctx context.Context) error          { tx.committed = true; return nil }
func (tx *scriptedTx) Rollback(ctx context.Context) error        { return nil }

func (tx *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.HasSuffix(sql, "FOR UPDATE"):
		return scriptedRow{func(dest ...any) error {
			if !tx.parentFound {
				return pgx.ErrNoRows
			}
			*(dest[0].(**int)) = tx.capacity
			return nil
		}}
	case strings.HasPrefix(sql, "SELECT EXISTS("):
		return scriptedRow{func(dest ...any) error { *(dest[0].(*bool)) = tx.member; return nil }}
	default:
		return scriptedRow{func(dest ...any) error { *(dest[0].(*int)) = tx.count; return nil }}
	}
}

func (tx *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.inserted = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func intPtr(v int) *int { return &v }

func TestMemberAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("new member under capacity", func(t *testing.T) {
		tx := &scriptedTx{parentFound: true, capacity: intPtr(2), count: 1}
		added, err := workshopAttendees.add(ctx, tx, testSB, 1, 5)
		require.NoError(t, err)
		assert.True(t, added)
		assert.True(t, tx.inserted)
		assert.True(t, tx.committed)
	})

	t.Run("existing member is a no-op even when full", func(t *testing.T) {
		tx := &scriptedTx{parentFound: true, capacity: intPtr(1), count: 1, member: true}
		added, err := workshopAttendees.add(ctx, tx, testSB, 1, 5)
		require.NoError(t, err)
		assert.False(t, added)
		assert.False(t, tx.inserted)
	})

	t.Run("new member when full", func(t *testing.T) {
		tx := &scriptedTx{parentFound: true, capacity: intPtr(1), count: 1}
		_, err := workshopAttendees.add(ctx, tx, testSB, 1, 5)
		assert.ErrorIs(t, err, apperrors.ErrCapacityReached)
		assert.False(t, tx.inserted)
		assert.False(t, tx.committed)
	})

	t.Run("zero capacity is unlimited", func(t *testing.T) {
		tx := &scriptedTx{parentFound: true, capacity: intPtr(0), count: 500}
		added, err := courseStudents.add(ctx, tx, testSB, 1, 5)
		require.NoError(t, err)
		assert.True(t, added)
	})

	t.Run("missing parent", func(t *testing.T) {
		tx := &scriptedTx{}
		_, err := courseStudents.add(ctx, tx, testSB, 1, 5)
		assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
	})
}
