package repositories

import (
	"context"
	"errors"
	"fmt"

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

var courseColumns = []string{
	"c.id", "c.title", "c.description", "c.instructor", "c.max_students", "c.status",
	"(SELECT COUNT(*) FROM course_students cs WHERE cs.course_id = c.id) AS enrolled_students",
	"c.created_at", "c.updated_at",
}

var moduleColumns = []string{"id", "course_id", "title", "description", "position", "created_at", "updated_at"}

var lessonColumns = []string{
	"l.id", "l.module_id", "l.title", "l.content", "l.video_url", "l.material_url",
	"l.duration_minutes", "l.position", "l.created_at", "l.updated_at",
}

// CourseRepository handles course, module, lesson and enrollment storage
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{}
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Instructor, &c.MaxStudents, &c.Status,
		&c.EnrolledStudents, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanModule(row pgx.Row) (*models.CourseModule, error) {
	m := &models.CourseModule{}
	err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	l := &models.Lesson{}
	err := row.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.VideoURL, &l.MaterialURL,
		&l.DurationMinutes, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns("title", "description", "instructor", "max_students", "status").
		Values(course.Title, course.Description, course.Instructor, course.MaxStudents, course.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("title", course.Title).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetByID returns a course with its enrolled student count. Modules are not loaded.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses c").Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}
	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}

// List returns one page of courses, optionally filtered by status.
func (r *CourseRepository) List(ctx context.Context, filter dto.CourseListFilter) ([]*models.Course, int64, error) {
	countBuilder := r.sb.Select("COUNT(*)").From("courses c")
	sqlBuilder := r.sb.Select(courseColumns...).From("courses c")
	if filter.Status != "" {
		countBuilder = countBuilder.Where(squirrel.Eq{"c.status": filter.Status})
		sqlBuilder = sqlBuilder.Where(squirrel.Eq{"c.status": filter.Status})
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count courses query")
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}
	if total == 0 {
		return []*models.Course{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	courses, err := r.queryCourses(ctx, sqlBuilder.OrderBy("c.created_at DESC", "c.id DESC").Limit(limit).Offset(offset))
	return courses, total, err
}

// ListByStudent returns the courses a user is enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, userID int64) ([]*models.Course, error) {
	return r.queryCourses(ctx, r.sb.Select(courseColumns...).
		From("courses c").
		Join("course_students s ON s.course_id = c.id").
		Where(squirrel.Eq{"s.user_id": userID}).
		OrderBy("s.enrolled_at DESC"))
}

func (r *CourseRepository) queryCourses(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Course, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Update writes every mutable course column.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		Set("title", course.Title).
		Set("description", course.Description).
		Set("instructor", course.Instructor).
		Set("max_students", course.MaxStudents).
		Set("status", course.Status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": course.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}
	return nil
}

// Delete removes a course. Modules, lessons and enrollments cascade.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "courses", id, apperrors.ErrCourseNotFound)
}

func (r *CourseRepository) deleteByID(ctx context.Context, table string, id int64, notFound error) error {
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

// ListModules returns the course modules ordered by position, each with its
// lessons ordered by position.
func (r *CourseRepository) ListModules(ctx context.Context, courseID int64) ([]*models.CourseModule, error) {
	sql, args, err := r.sb.Select(moduleColumns...).
		From("course_modules").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("position ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list modules query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing list modules query")
		return nil, fmt.Errorf("error listing modules: %w", err)
	}
	modules := make([]*models.CourseModule, 0)
	byID := make(map[int64]*models.CourseModule)
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning module row: %w", err)
		}
		m.Lessons = make([]*models.Lesson, 0)
		modules = append(modules, m)
		byID[m.ID] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return modules, nil
	}

	sql, args, err = r.sb.Select(lessonColumns...).
		From("lessons l").
		Join("course_modules m ON m.id = l.module_id").
		Where(squirrel.Eq{"m.course_id": courseID}).
		OrderBy("l.position ASC", "l.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list lessons query: %w", err)
	}
	lessonRows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing list lessons query")
		return nil, fmt.Errorf("error listing lessons: %w", err)
	}
	defer lessonRows.Close()
	for lessonRows.Next() {
		l, err := scanLesson(lessonRows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lesson row: %w", err)
		}
		if m, ok := byID[l.ModuleID]; ok {
			m.Lessons = append(m.Lessons, l)
		}
	}
	return modules, lessonRows.Err()
}

// GetModule returns a module without lessons.
func (r *CourseRepository) GetModule(ctx context.Context, id int64) (*models.CourseModule, error) {
	sql, args, err := r.sb.Select(moduleColumns...).From("course_modules").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get module query: %w", err)
	}
	m, err := scanModule(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrModuleNotFound
		}
		return nil, fmt.Errorf("error retrieving module: %w", err)
	}
	return m, nil
}

// CreateModule inserts a module under an existing course.
func (r *CourseRepository) CreateModule(ctx context.Context, module *models.CourseModule) error {
	sql, args, err := r.sb.Insert("course_modules").
		Columns("course_id", "title", "description", "position").
		Values(module.CourseID, module.Title, module.Description, module.Position).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create module query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&module.ID, &module.CreatedAt, &module.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "") {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", module.CourseID).Msg("Error executing create module query")
		return fmt.Errorf("error creating module: %w", err)
	}
	return nil
}

// UpdateModule writes title, description and position.
func (r *CourseRepository) UpdateModule(ctx context.Context, module *models.CourseModule) error {
	sql, args, err := r.sb.Update("course_modules").
		Set("title", module.Title).
		Set("description", module.Description).
		Set("position", module.Position).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": module.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update module query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&module.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrModuleNotFound
		}
		return fmt.Errorf("error updating module: %w", err)
	}
	return nil
}

// DeleteModule removes a module and, by cascade, its lessons.
func (r *CourseRepository) DeleteModule(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "course_modules", id, apperrors.ErrModuleNotFound)
}

// GetLesson returns a single lesson.
func (r *CourseRepository) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	sql, args, err := r.sb.Select(lessonColumns...).From("lessons l").Where(squirrel.Eq{"l.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get lesson query: %w", err)
	}
	l, err := scanLesson(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrLessonNotFound
		}
		return nil, fmt.Errorf("error retrieving lesson: %w", err)
	}
	return l, nil
}

// CreateLesson inserts a lesson under an existing module.
func (r *CourseRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	sql, args, err := r.sb.Insert("lessons").
		Columns("module_id", "title", "content", "video_url", "duration_minutes", "position").
		Values(lesson.ModuleID, lesson.Title, lesson.Content, lesson.VideoURL, lesson.DurationMinutes, lesson.Position).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create lesson query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "") {
			return apperrors.ErrModuleNotFound
		}
		logger.Error().Err(err).Int64("moduleID", lesson.ModuleID).Msg("Error executing create lesson query")
		return fmt.Errorf("error creating lesson: %w", err)
	}
	return nil
}

// UpdateLesson writes every mutable lesson column except the material URL.
func (r *CourseRepository) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	sql, args, err := r.sb.Update("lessons").
		Set("title", lesson.Title).
		Set("content", lesson.Content).
		Set("video_url", lesson.VideoURL).
		Set("duration_minutes", lesson.DurationMinutes).
		Set("position", lesson.Position).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": lesson.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update lesson query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&lesson.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrLessonNotFound
		}
		return fmt.Errorf("error updating lesson: %w", err)
	}
	return nil
}

// SetLessonMaterial records the public URL of an uploaded lesson file.
func (r *CourseRepository) SetLessonMaterial(ctx context.Context, id int64, materialURL string) error {
	sql, args, err := r.sb.Update("lessons").
		Set("material_url", materialURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set material query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error setting lesson material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrLessonNotFound
	}
	return nil
}

// DeleteLesson removes a lesson.
func (r *CourseRepository) DeleteLesson(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "lessons", id, apperrors.ErrLessonNotFound)
}

// AddStudent enrolls a user. Re-enrolling is a no-op.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID, userID int64) (bool, error) {
	return courseStudents.add(ctx, r.db, r.sb, courseID, userID)
}

// RemoveStudent unenrolls a user. Removing a non-student is a no-op.
func (r *CourseRepository) RemoveStudent(ctx context.Context, courseID, userID int64) (bool, error) {
	return courseStudents.remove(ctx, r.db, r.sb, courseID, userID)
}

// ListStudents lists enrolled users in enrollment order.
func (r *CourseRepository) ListStudents(ctx context.Context, courseID int64) ([]*models.Member, error) {
	return courseStudents.list(ctx, r.db, r.sb, courseID)
}

// CountStudents counts enrolled users.
func (r *CourseRepository) CountStudents(ctx context.Context, courseID int64) (int, error) {
	return courseStudents.count(ctx, r.db, r.sb, courseID)
}

// IsStudent reports whether the user is enrolled.
func (r *CourseRepository) IsStudent(ctx context.Context, courseID, userID int64) (bool, error) {
	return courseStudents.isMember(ctx, r.db, r.sb, courseID, userID)
}
