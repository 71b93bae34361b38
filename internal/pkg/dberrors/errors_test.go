package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "workshop_attendees_user_id_fkey"}

	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.True(t, IsDuplicateConstraintError(dup, "users_email_key"))
	assert.False(t, IsDuplicateConstraintError(dup, "other_key"))

	assert.True(t, IsForeignKeyViolation(fk, ""))
	assert.True(t, IsForeignKeyViolation(fk, "workshop_attendees_user_id_fkey"))
	assert.False(t, IsForeignKeyViolation(fk, "course_students_user_id_fkey"))
	assert.False(t, IsForeignKeyViolation(dup, ""))

	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
