package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// CourseRepository is an in-memory ICourseRepository.
type CourseRepository struct{ s *Store }

func (r *CourseRepository) course(c *models.Course) *models.Course {
	cp := *c
	cp.Modules = nil
	cp.EnrolledStudents = len(r.s.students[c.ID])
	return &cp
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	course.ID = r.s.id()
	course.CreatedAt, course.UpdatedAt = now, now
	cp := *course
	r.s.courses[course.ID] = &cp
	return nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return r.course(c), nil
}

func (r *CourseRepository) List(ctx context.Context, filter dto.CourseListFilter) ([]*models.Course, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Course
	for _, c := range r.s.courses {
		if filter.Status == "" || c.Status == filter.Status {
			out = append(out, r.course(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Page, filter.Size), int64(len(out)), nil
}

func (r *CourseRepository) ListByStudent(ctx context.Context, userID int64) ([]*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Course{}
	for id, members := range r.s.students {
		if _, ok := members[userID]; ok {
			if c, ok := r.s.courses[id]; ok {
				out = append(out, r.course(c))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[course.ID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	course.UpdatedAt = time.Now()
	cp := *course
	cp.Modules = nil
	r.s.courses[course.ID] = &cp
	return nil
}

// Delete cascades to modules, lessons and enrollments like the schema does.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.s.courses, id)
	delete(r.s.students, id)
	for mid, m := range r.s.modules {
		if m.CourseID == id {
			r.deleteModule(mid)
		}
	}
	return nil
}

func (r *CourseRepository) deleteModule(id int64) {
	delete(r.s.modules, id)
	for lid, l := range r.s.lessons {
		if l.ModuleID == id {
			delete(r.s.lessons, lid)
		}
	}
}

func (r *CourseRepository) ListModules(ctx context.Context, courseID int64) ([]*models.CourseModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.CourseModule{}
	for _, m := range r.s.modules {
		if m.CourseID != courseID {
			continue
		}
		cp := *m
		cp.Lessons = []*models.Lesson{}
		for _, l := range r.s.lessons {
			if l.ModuleID == m.ID {
				lc := *l
				cp.Lessons = append(cp.Lessons, &lc)
			}
		}
		sort.Slice(cp.Lessons, func(i, j int) bool {
			if cp.Lessons[i].Position != cp.Lessons[j].Position {
				return cp.Lessons[i].Position < cp.Lessons[j].Position
			}
			return cp.Lessons[i].ID < cp.Lessons[j].ID
		})
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CourseRepository) GetModule(ctx context.Context, id int64) (*models.CourseModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.modules[id]
	if !ok {
		return nil, apperrors.ErrModuleNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *CourseRepository) CreateModule(ctx context.Context, module *models.CourseModule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[module.CourseID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	now := time.Now()
	module.ID = r.s.id()
	module.CreatedAt, module.UpdatedAt = now, now
	cp := *module
	cp.Lessons = nil
	r.s.modules[module.ID] = &cp
	return nil
}

func (r *CourseRepository) UpdateModule(ctx context.Context, module *models.CourseModule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.modules[module.ID]; !ok {
		return apperrors.ErrModuleNotFound
	}
	module.UpdatedAt = time.Now()
	cp := *module
	cp.Lessons = nil
	r.s.modules[module.ID] = &cp
	return nil
}

func (r *CourseRepository) DeleteModule(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.modules[id]; !ok {
		return apperrors.ErrModuleNotFound
	}
	r.deleteModule(id)
	return nil
}

func (r *CourseRepository) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lessons[id]
	if !ok {
		return nil, apperrors.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *CourseRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.modules[lesson.ModuleID]; !ok {
		return apperrors.ErrModuleNotFound
	}
	now := time.Now()
	lesson.ID = r.s.id()
	lesson.CreatedAt, lesson.UpdatedAt = now, now
	cp := *lesson
	r.s.lessons[lesson.ID] = &cp
	return nil
}

func (r *CourseRepository) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lessons[lesson.ID]; !ok {
		return apperrors.ErrLessonNotFound
	}
	lesson.UpdatedAt = time.Now()
	cp := *lesson
	r.s.lessons[lesson.ID] = &cp
	return nil
}

func (r *CourseRepository) SetLessonMaterial(ctx context.Context, id int64, materialURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lessons[id]
	if !ok {
		return apperrors.ErrLessonNotFound
	}
	l.MaterialURL = &materialURL
	return nil
}

func (r *CourseRepository) DeleteLesson(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lessons[id]; !ok {
		return apperrors.ErrLessonNotFound
	}
	delete(r.s.lessons, id)
	return nil
}

func (r *CourseRepository) AddStudent(ctx context.Context, courseID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[courseID]
	if !ok {
		return false, apperrors.ErrCourseNotFound
	}
	return r.s.add(r.s.students, courseID, userID, c.MaxStudents)
}

func (r *CourseRepository) RemoveStudent(ctx context.Context, courseID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.remove(r.s.students, courseID, userID), nil
}

func (r *CourseRepository) ListStudents(ctx context.Context, courseID int64) ([]*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.members(r.s.students, courseID), nil
}

func (r *CourseRepository) CountStudents(ctx context.Context, courseID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.students[courseID]), nil
}

func (r *CourseRepository) IsStudent(ctx context.Context, courseID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.students[courseID][userID]
	return ok, nil
}
