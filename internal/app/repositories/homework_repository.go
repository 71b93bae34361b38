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

var homeworkColumns = []string{
	"h.id", "h.title", "h.description", "h.due_date", "h.status", "h.type", "h.assigned_to_user_id",
	"h.course_id", "h.student_response", "h.grade", "h.feedback", "h.submitted_at", "h.graded_at",
	"h.created_at", "h.updated_at",
}

var questionColumns = []string{"q.id", "q.homework_id", "q.prompt", "q.kind", "q.options", "q.position", "q.created_at"}

var responseColumns = []string{"r.id", "r.question_id", "r.user_id", "r.answer", "r.created_at", "r.updated_at"}

// HomeworkRepository handles homework, question and response storage
type HomeworkRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewHomeworkRepository creates a new HomeworkRepository
func NewHomeworkRepository(db *pgxpool.Pool) *HomeworkRepository {
	return &HomeworkRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanHomework(row pgx.Row) (*models.Homework, error) {
	h := &models.Homework{}
	err := row.Scan(&h.ID, &h.Title, &h.Description, &h.DueDate, &h.Status, &h.Type, &h.AssignedToUserID,
		&h.CourseID, &h.StudentResponse, &h.Grade, &h.Feedback, &h.SubmittedAt, &h.GradedAt,
		&h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func scanQuestion(row pgx.Row) (*models.HomeworkQuestion, error) {
	q := &models.HomeworkQuestion{}
	var options []byte
	err := row.Scan(&q.ID, &q.HomeworkID, &q.Prompt, &q.Kind, &options, &q.Position, &q.CreatedAt)
	if len(options) > 0 {
		q.Options = options
	}
	return q, err
}

func scanResponse(row pgx.Row) (*models.HomeworkResponse, error) {
	r := &models.HomeworkResponse{}
	err := row.Scan(&r.ID, &r.QuestionID, &r.UserID, &r.Answer, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// homeworkFKError maps foreign key failures to the missing parent.
func homeworkFKError(err error) error {
	switch {
	case dberrors.IsForeignKeyViolation(err, "homework_assigned_to_user_id_fkey"):
		return apperrors.ErrUserNotFound
	case dberrors.IsForeignKeyViolation(err, "homework_course_id_fkey"):
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Create inserts homework.
func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	sql, args, err := r.sb.Insert("homework").
		Columns("title", "description", "due_date", "status", "type", "assigned_to_user_id", "course_id").
		Values(hw.Title, hw.Description, hw.DueDate, hw.Status, hw.Type, hw.AssignedToUserID, hw.CourseID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create homework query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&hw.ID, &hw.CreatedAt, &hw.UpdatedAt); err != nil {
		if fkErr := homeworkFKError(err); fkErr != nil {
			return fkErr
		}
		logger.Error().Err(err).Str("title", hw.Title).Msg("Error executing create homework query")
		return fmt.Errorf("error creating homework: %w", err)
	}
	return nil
}

// GetByID returns a single homework item.
func (r *HomeworkRepository) GetByID(ctx context.Context, id int64) (*models.Homework, error) {
	sql, args, err := r.sb.Select(homeworkColumns...).From("homework h").Where(squirrel.Eq{"h.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get homework query: %w", err)
	}
	hw, err := scanHomework(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrHomeworkNotFound
		}
		logger.Error().Err(err).Int64("homeworkID", id).Msg("Error scanning homework row")
		return nil, fmt.Errorf("error retrieving homework: %w", err)
	}
	return hw, nil
}

// List returns one page of homework for the admin view.
func (r *HomeworkRepository) List(ctx context.Context, filter dto.HomeworkListFilter) ([]*models.Homework, int64, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"h.status": filter.Status})
	}
	if filter.UserID != nil {
		where = append(where, squirrel.Eq{"h.assigned_to_user_id": *filter.UserID})
	}
	if filter.CourseID != nil {
		where = append(where, squirrel.Eq{"h.course_id": *filter.CourseID})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("homework h").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count homework query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count homework query")
		return nil, 0, fmt.Errorf("error counting homework: %w", err)
	}
	if total == 0 {
		return []*models.Homework{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	items, err := r.queryHomework(ctx, r.sb.Select(homeworkColumns...).
		From("homework h").
		Where(where).
		OrderBy("h.due_date ASC NULLS LAST", "h.id DESC").
		Limit(limit).
		Offset(offset))
	return items, total, err
}

// ListForUser returns homework assigned to the user or to one of the user's courses.
func (r *HomeworkRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Homework, error) {
	return r.queryHomework(ctx, r.sb.Select(homeworkColumns...).
		From("homework h").
		Where(squirrel.Or{
			squirrel.Eq{"h.assigned_to_user_id": userID},
			squirrel.Expr("h.course_id IN (SELECT cs.course_id FROM course_students cs WHERE cs.user_id = ?)", userID),
		}).
		OrderBy("h.due_date ASC NULLS LAST", "h.id DESC"))
}

func (r *HomeworkRepository) queryHomework(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Homework, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list homework query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list homework query")
		return nil, fmt.Errorf("error listing homework: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Homework, 0)
	for rows.Next() {
		hw, err := scanHomework(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning homework row: %w", err)
		}
		items = append(items, hw)
	}
	return items, rows.Err()
}

// Update writes every admin-editable column, status included.
func (r *HomeworkRepository) Update(ctx context.Context, hw *models.Homework) error {
	sql, args, err := r.sb.Update("homework").
		Set("title", hw.Title).
		Set("description", hw.Description).
		Set("due_date", hw.DueDate).
		Set("status", hw.Status).
		Set("type", hw.Type).
		Set("assigned_to_user_id", hw.AssignedToUserID).
		Set("course_id", hw.CourseID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": hw.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update homework query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&hw.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrHomeworkNotFound
		}
		if fkErr := homeworkFKError(err); fkErr != nil {
			return fkErr
		}
		logger.Error().Err(err).Int64("homeworkID", hw.ID).Msg("Error executing update homework query")
		return fmt.Errorf("error updating homework: %w", err)
	}
	return nil
}

// Delete removes homework. Questions and responses cascade.
func (r *HomeworkRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, r.sb.Delete("homework").Where(squirrel.Eq{"id": id}), apperrors.ErrHomeworkNotFound)
}

// UpdateStatus sets the status column only.
func (r *HomeworkRepository) UpdateStatus(ctx context.Context, id int64, status models.HomeworkStatus) error {
	return r.exec(ctx, r.sb.Update("homework").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}), apperrors.ErrHomeworkNotFound)
}

// Submit stores the response text and forces the COMPLETED status.
func (r *HomeworkRepository) Submit(ctx context.Context, id int64, response string, at time.Time) error {
	return r.exec(ctx, r.sb.Update("homework").
		Set("student_response", response).
		Set("status", models.HomeworkCompleted).
		Set("submitted_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}), apperrors.ErrHomeworkNotFound)
}

// Grade stores the grade and feedback and sets GRADED.
func (r *HomeworkRepository) Grade(ctx context.Context, id int64, grade int, feedback string, at time.Time) error {
	return r.exec(ctx, r.sb.Update("homework").
		Set("grade", grade).
		Set("feedback", feedback).
		Set("status", models.HomeworkGraded).
		Set("graded_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}), apperrors.ErrHomeworkNotFound)
}

func (r *HomeworkRepository) exec(ctx context.Context, b squirrel.Sqlizer, notFound error) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build homework query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing homework query")
		return fmt.Errorf("error executing homework query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// ListQuestions returns the questions of a homework item in position order.
func (r *HomeworkRepository) ListQuestions(ctx context.Context, homeworkID int64) ([]*models.HomeworkQuestion, error) {
	sql, args, err := r.sb.Select(questionColumns...).
		From("homework_questions q").
		Where(squirrel.Eq{"q.homework_id": homeworkID}).
		OrderBy("q.position ASC", "q.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list questions query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("homeworkID", homeworkID).Msg("Error executing list questions query")
		return nil, fmt.Errorf("error listing questions: %w", err)
	}
	defer rows.Close()

	questions := make([]*models.HomeworkQuestion, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a single question.
func (r *HomeworkRepository) GetQuestion(ctx context.Context, id int64) (*models.HomeworkQuestion, error) {
	sql, args, err := r.sb.Select(questionColumns...).From("homework_questions q").Where(squirrel.Eq{"q.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get question query: %w", err)
	}
	q, err := scanQuestion(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("error retrieving question: %w", err)
	}
	return q, nil
}

// CreateQuestion inserts a question. Options are stored as JSONB.
func (r *HomeworkRepository) CreateQuestion(ctx context.Context, q *models.HomeworkQuestion) error {
	var options interface{}
	if len(q.Options) > 0 {
		options = string(q.Options)
	}
	sql, args, err := r.sb.Insert("homework_questions").
		Columns("homework_id", "prompt", "kind", "options", "position").
		Values(q.HomeworkID, q.Prompt, q.Kind, options, q.Position).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create question query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&q.ID, &q.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "") {
			return apperrors.ErrHomeworkNotFound
		}
		logger.Error().Err(err).Int64("homeworkID", q.HomeworkID).Msg("Error executing create question query")
		return fmt.Errorf("error creating question: %w", err)
	}
	return nil
}

// DeleteQuestion removes a question and its responses.
func (r *HomeworkRepository) DeleteQuestion(ctx context.Context, id int64) error {
	return r.exec(ctx, r.sb.Delete("homework_questions").Where(squirrel.Eq{"id": id}), apperrors.ErrQuestionNotFound)
}

// UpsertResponse stores the user's answer, replacing a previous one.
func (r *HomeworkRepository) UpsertResponse(ctx context.Context, resp *models.HomeworkResponse) error {
	sql, args, err := r.sb.Insert("homework_responses").
		Columns("question_id", "user_id", "answer").
		Values(resp.QuestionID, resp.UserID, resp.Answer).
		Suffix("ON CONFLICT (question_id, user_id) DO UPDATE SET answer = EXCLUDED.answer, updated_at = NOW() " +
			"RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert response query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&resp.ID, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "homework_responses_question_id_fkey") {
			return apperrors.ErrQuestionNotFound
		}
		if dberrors.IsForeignKeyViolation(err, "") {
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("questionID", resp.QuestionID).Msg("Error executing upsert response query")
		return fmt.Errorf("error saving response: %w", err)
	}
	return nil
}

// ListResponses lists answers to a homework item's questions, optionally for one user.
func (r *HomeworkRepository) ListResponses(ctx context.Context, homeworkID, userID int64) ([]*models.HomeworkResponse, error) {
	b := r.sb.Select(responseColumns...).
		From("homework_responses r").
		Join("homework_questions q ON q.id = r.question_id").
		Where(squirrel.Eq{"q.homework_id": homeworkID})
	if userID > 0 {
		b = b.Where(squirrel.Eq{"r.user_id": userID})
	}
	sql, args, err := b.OrderBy("r.user_id ASC", "q.position ASC", "q.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list responses query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("homeworkID", homeworkID).Msg("Error executing list responses query")
		return nil, fmt.Errorf("error listing responses: %w", err)
	}
	defer rows.Close()

	responses := make([]*models.HomeworkResponse, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning response row: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
