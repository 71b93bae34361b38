package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func TestEnrollIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)

	course, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "CBT", Status: models.CourseStatusActive})
	require.NoError(t, err)

	first, err := f.svc.Course.Enroll(ctx, course.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, 1, first.Members)

	second, err := f.svc.Course.Enroll(ctx, course.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, 1, second.Members)

	got, err := f.svc.Course.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.EnrolledStudents)

	left, err := f.svc.Course.Unenroll(ctx, course.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, left.Changed)
	assert.Equal(t, 0, left.Members)

	again, err := f.svc.Course.Unenroll(ctx, course.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestEnrollRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "Ada", "a@x.com", false)
	b := f.user(t, "Bob", "b@x.com", false)

	draft, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "Draft"})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, draft.Status)

	_, err = f.svc.Course.Enroll(ctx, draft.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// admins can still add students to a draft course
	res, err := f.svc.Course.AddStudent(ctx, draft.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	full, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "Small", Status: models.CourseStatusActive, MaxStudents: intPtr(1)})
	require.NoError(t, err)
	_, err = f.svc.Course.Enroll(ctx, full.ID, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Course.Enroll(ctx, full.ID, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrCapacityReached)

	_, err = f.svc.Course.AddStudent(ctx, full.ID, 999)
	assert.ErrorIs(t, err, apperrors.ErrCapacityReached)

	_, err = f.svc.Course.Enroll(ctx, 999, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestCourseTreeAndCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "CBT"})
	require.NoError(t, err)

	m2, err := f.svc.Course.CreateModule(ctx, course.ID, &dto.CreateModuleRequest{Title: "Second", Position: 2})
	require.NoError(t, err)
	m1, err := f.svc.Course.CreateModule(ctx, course.ID, &dto.CreateModuleRequest{Title: "First", Position: 1})
	require.NoError(t, err)

	_, err = f.svc.Course.CreateLesson(ctx, m1.ID, &dto.CreateLessonRequest{Title: "B", Position: 2})
	require.NoError(t, err)
	_, err = f.svc.Course.CreateLesson(ctx, m1.ID, &dto.CreateLessonRequest{Title: "A", Position: 1})
	require.NoError(t, err)
	l3, err := f.svc.Course.CreateLesson(ctx, m2.ID, &dto.CreateLessonRequest{Title: "C"})
	require.NoError(t, err)

	tree, err := f.svc.Course.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 2)
	assert.Equal(t, "First", tree.Modules[0].Title)
	require.Len(t, tree.Modules[0].Lessons, 2)
	assert.Equal(t, "A", tree.Modules[0].Lessons[0].Title)
	assert.Equal(t, "B", tree.Modules[0].Lessons[1].Title)

	require.NoError(t, f.svc.Course.DeleteModule(ctx, m2.ID))
	_, err = f.store.Courses().GetLesson(ctx, l3.ID)
	assert.ErrorIs(t, err, apperrors.ErrLessonNotFound)

	require.NoError(t, f.svc.Course.DeleteCourse(ctx, course.ID))
	_, err = f.store.Courses().GetModule(ctx, m1.ID)
	assert.ErrorIs(t, err, apperrors.ErrModuleNotFound)
	modules, err := f.store.Courses().ListModules(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestUpdateCourseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "CBT"})
	require.NoError(t, err)

	bad := models.CourseStatus("ARCHIVED")
	_, err = f.svc.Course.UpdateCourse(ctx, course.ID, &dto.UpdateCourseRequest{Status: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	active := models.CourseStatusActive
	updated, err := f.svc.Course.UpdateCourse(ctx, course.ID, &dto.UpdateCourseRequest{Status: &active, MaxStudents: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusActive, updated.Status)
	assert.Equal(t, 10, *updated.MaxStudents)
}

func TestUploadLessonMaterialWithoutStorage(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Course.UploadLessonMaterial(context.Background(), 1, nil)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
