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
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/dberrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

var workshopColumns = []string{
	"w.id", "w.title", "w.description", "w.instructor", "w.scheduled_at", "w.start_date", "w.end_date",
	"w.duration_weeks", "w.max_participants", "w.is_active", "w.meeting_url",
	"(SELECT COUNT(*) FROM workshop_attendees a WHERE a.workshop_id = w.id) AS attendee_count",
	"w.created_at", "w.updated_at",
}

var sessionColumns = []string{
	"id", "workshop_id", "title", "starts_at", "duration_minutes", "meeting_id", "join_url",
	"reminder_sent_at", "created_at", "updated_at",
}

// WorkshopRepository handles workshop, session and attendee storage
type WorkshopRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewWorkshopRepository creates a new WorkshopRepository
func NewWorkshopRepository(db *pgxpool.Pool) *WorkshopRepository {
	return &WorkshopRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanWorkshop(row pgx.Row) (*models.Workshop, error) {
	w := &models.Workshop{}
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Instructor, &w.ScheduledAt, &w.StartDate, &w.EndDate,
		&w.DurationWeeks, &w.MaxParticipants, &w.IsActive, &w.MeetingURL, &w.AttendeeCount,
		&w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func scanSession(row pgx.Row) (*models.WorkshopSession, error) {
	s := &models.WorkshopSession{}
	err := row.Scan(&s.ID, &s.WorkshopID, &s.Title, &s.StartsAt, &s.DurationMinutes, &s.MeetingID, &s.JoinURL,
		&s.ReminderSentAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a workshop.
func (r *WorkshopRepository) Create(ctx context.Context, w *models.Workshop) error {
	sql, args, err := r.sb.Insert("workshops").
		Columns("title", "description", "instructor", "scheduled_at", "start_date", "end_date",
			"duration_weeks", "max_participants", "is_active", "meeting_url").
		Values(w.Title, w.Description, w.Instructor, w.ScheduledAt, w.StartDate, w.EndDate,
			w.DurationWeeks, w.MaxParticipants, w.IsActive, w.MeetingURL).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create workshop query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("title", w.Title).Msg("Error executing create workshop query")
		return fmt.Errorf("error creating workshop: %w", err)
	}
	return nil
}

// GetByID returns a workshop with its attendee count. Sessions are not loaded.
func (r *WorkshopRepository) GetByID(ctx context.Context, id int64) (*models.Workshop, error) {
	sql, args, err := r.sb.Select(workshopColumns...).From("workshops w").Where(squirrel.Eq{"w.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get workshop query: %w", err)
	}
	w, err := scanWorkshop(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWorkshopNotFound
		}
		logger.Error().Err(err).Int64("workshopID", id).Msg("Error scanning workshop row")
		return nil, fmt.Errorf("error retrieving workshop: %w", err)
	}
	return w, nil
}

// List returns one page of workshops, optionally filtered by the active flag.
func (r *WorkshopRepository) List(ctx context.Context, filter dto.WorkshopListFilter) ([]*models.Workshop, int64, error) {
	countBuilder := r.sb.Select("COUNT(*)").From("workshops w")
	sqlBuilder := r.sb.Select(workshopColumns...).From("workshops w")
	if filter.Active != nil {
		countBuilder = countBuilder.Where(squirrel.Eq{"w.is_active": *filter.Active})
		sqlBuilder = sqlBuilder.Where(squirrel.Eq{"w.is_active": *filter.Active})
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count workshops query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count workshops query")
		return nil, 0, fmt.Errorf("error counting workshops: %w", err)
	}
	if total == 0 {
		return []*models.Workshop{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	workshops, err := r.queryWorkshops(ctx, sqlBuilder.
		OrderBy("w.start_date ASC NULLS LAST", "w.id ASC").
		Limit(limit).
		Offset(offset))
	return workshops, total, err
}

// ListByAttendee returns the workshops a user attends.
func (r *WorkshopRepository) ListByAttendee(ctx context.Context, userID int64) ([]*models.Workshop, error) {
	return r.queryWorkshops(ctx, r.sb.Select(workshopColumns...).
		From("workshops w").
		Join("workshop_attendees wa ON wa.workshop_id = w.id").
		Where(squirrel.Eq{"wa.user_id": userID}).
		OrderBy("w.start_date ASC NULLS LAST", "w.id ASC"))
}

func (r *WorkshopRepository) queryWorkshops(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Workshop, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list workshops query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list workshops query")
		return nil, fmt.Errorf("error listing workshops: %w", err)
	}
	defer rows.Close()

	workshops := make([]*models.Workshop, 0)
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning workshop row: %w", err)
		}
		workshops = append(workshops, w)
	}
	return workshops, rows.Err()
}

// Update writes every mutable workshop column.
func (r *WorkshopRepository) Update(ctx context.Context, w *models.Workshop) error {
	sql, args, err := r.sb.Update("workshops").
		Set("title", w.Title).
		Set("description", w.Description).
		Set("instructor", w.Instructor).
		Set("scheduled_at", w.ScheduledAt).
		Set("start_date", w.StartDate).
		Set("end_date", w.EndDate).
		Set("duration_weeks", w.DurationWeeks).
		Set("max_participants", w.MaxParticipants).
		Set("is_active", w.IsActive).
		Set("meeting_url", w.MeetingURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": w.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update workshop query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrWorkshopNotFound
		}
		logger.Error().Err(err).Int64("workshopID", w.ID).Msg("Error executing update workshop query")
		return fmt.Errorf("error updating workshop: %w", err)
	}
	return nil
}

// Delete removes a workshop. Sessions, attendees and group messages cascade.
func (r *WorkshopRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "workshops", id, apperrors.ErrWorkshopNotFound)
}

func (r *WorkshopRepository) deleteByID(ctx context.Context, table string, id int64, notFound error) error {
	sql, args, err := r.sb.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", table).Int64("id", id).Msg("Error executing delete query")
		return fmt.Errorf("error deleting from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// ListSessions returns the sessions of a workshop in start order.
func (r *WorkshopRepository) ListSessions(ctx context.Context, workshopID int64) ([]*models.WorkshopSession, error) {
	return r.querySessions(ctx, r.sb.Select(sessionColumns...).
		From("workshop_sessions").
		Where(squirrel.Eq{"workshop_id": workshopID}).
		OrderBy("starts_at ASC", "id ASC"))
}

// ListSessionsStartingBetween returns unreminded sessions starting in [from, to).
func (r *WorkshopRepository) ListSessionsStartingBetween(ctx context.Context, from, to time.Time) ([]*models.WorkshopSession, error) {
	return r.querySessions(ctx, r.sb.Select(sessionColumns...).
		From("workshop_sessions").
		Where(squirrel.GtOrEq{"starts_at": from}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.Eq{"reminder_sent_at": nil}).
		OrderBy("starts_at ASC"))
}

func (r *WorkshopRepository) querySessions(ctx context.Context, b squirrel.SelectBuilder) ([]*models.WorkshopSession, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list sessions query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list sessions query")
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.WorkshopSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession returns a single session.
func (r *WorkshopRepository) GetSession(ctx context.Context, id int64) (*models.WorkshopSession, error) {
	sql, args, err := r.sb.Select(sessionColumns...).From("workshop_sessions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}
	s, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}
	return s, nil
}

// CreateSession inserts a session under an existing workshop.
func (r *WorkshopRepository) CreateSession(ctx context.Context, s *models.WorkshopSession) error {
	sql, args, err := r.sb.Insert("workshop_sessions").
		Columns("workshop_id", "title", "starts_at", "duration_minutes").
		Values(s.WorkshopID, s.Title, s.StartsAt, s.DurationMinutes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create session query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "") {
			return apperrors.ErrWorkshopNotFound
		}
		logger.Error().Err(err).Int64("workshopID", s.WorkshopID).Msg("Error executing create session query")
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

// UpdateSession writes title, start and duration. Moving the start clears
// the reminder marker so the new date gets a reminder.
func (r *WorkshopRepository) UpdateSession(ctx context.Context, s *models.WorkshopSession) error {
	sql, args, err := r.sb.Update("workshop_sessions").
		Set("title", s.Title).
		Set("reminder_sent_at", squirrel.Expr("CASE WHEN starts_at = ? THEN reminder_sent_at ELSE NULL END", s.StartsAt)).
		Set("starts_at", s.StartsAt).
		Set("duration_minutes", s.DurationMinutes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING reminder_sent_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update session query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ReminderSentAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSessionNotFound
		}
		return fmt.Errorf("error updating session: %w", err)
	}
	return nil
}

// DeleteSession removes a session.
func (r *WorkshopRepository) DeleteSession(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "workshop_sessions", id, apperrors.ErrSessionNotFound)
}

// SetSessionMeeting stores the external meeting id and join URL.
func (r *WorkshopRepository) SetSessionMeeting(ctx context.Context, id int64, meetingID, joinURL string) error {
	return r.updateSession(ctx, id, r.sb.Update("workshop_sessions").
		Set("meeting_id", meetingID).
		Set("join_url", joinURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// MarkSessionReminded stamps the session so the reminder job skips it.
func (r *WorkshopRepository) MarkSessionReminded(ctx context.Context, id int64, at time.Time) error {
	return r.updateSession(ctx, id, r.sb.Update("workshop_sessions").
		Set("reminder_sent_at", at).
		Where(squirrel.Eq{"id": id}))
}

func (r *WorkshopRepository) updateSession(ctx context.Context, id int64, b squirrel.UpdateBuilder) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update session query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error executing update session query")
		return fmt.Errorf("error updating session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// AddAttendee adds a user to the roster. Re-adding is a no-op.
func (r *WorkshopRepository) AddAttendee(ctx context.Context, workshopID, userID int64) (bool, error) {
	return workshopAttendees.add(ctx, r.db, r.sb, workshopID, userID)
}

// RemoveAttendee removes a user from the roster. Removing a non-member is a no-op.
func (r *WorkshopRepository) RemoveAttendee(ctx context.Context, workshopID, userID int64) (bool, error) {
	return workshopAttendees.remove(ctx, r.db, r.sb, workshopID, userID)
}

// ListAttendees lists the roster in join order.
func (r *WorkshopRepository) ListAttendees(ctx context.Context, workshopID int64) ([]*models.Member, error) {
	return workshopAttendees.list(ctx, r.db, r.sb, workshopID)
}

// CountAttendees counts the roster.
func (r *WorkshopRepository) CountAttendees(ctx context.Context, workshopID int64) (int, error) {
	return workshopAttendees.count(ctx, r.db, r.sb, workshopID)
}

// IsAttendee reports whether the user is on the roster.
func (r *WorkshopRepository) IsAttendee(ctx context.Context, workshopID, userID int64) (bool, error) {
	return workshopAttendees.isMember(ctx, r.db, r.sb, workshopID, userID)
}
