package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func newHomework(t *testing.T, f *fixture, assignee int64) *models.Homework {
	t.Helper()
	hw, err := f.svc.Homework.CreateHomework(context.Background(), &dto.CreateHomeworkRequest{
		Title:            "Thought record",
		Type:             models.HomeworkTypeReflection,
		AssignedToUserID: int64Ptr(assignee),
	})
	require.NoError(t, err)
	return hw
}

func TestSubmitAlwaysCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)

	for _, start := range []models.HomeworkStatus{
		models.HomeworkNotStarted, models.HomeworkInProgress, models.HomeworkCompleted, models.HomeworkGraded,
	} {
		t.Run(string(start), func(t *testing.T) {
			hw := newHomework(t, f, u.ID)
			require.NoError(t, f.store.Homework().UpdateStatus(ctx, hw.ID, start))

			got, err := f.svc.Homework.Submit(ctx, hw.ID, u.ID, "my answer")
			require.NoError(t, err)
			assert.Equal(t, models.HomeworkCompleted, got.Status)
			require.NotNil(t, got.StudentResponse)
			assert.Equal(t, "my answer", *got.StudentResponse)

			stored, err := f.store.Homework().GetByID(ctx, hw.ID)
			require.NoError(t, err)
			assert.Equal(t, models.HomeworkCompleted, stored.Status)
			assert.Equal(t, "my answer", *stored.StudentResponse)
			assert.NotNil(t, stored.SubmittedAt)
		})
	}
}

func TestStatusMovesForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)
	hw := newHomework(t, f, u.ID)

	got, err := f.svc.Homework.UpdateStatus(ctx, hw.ID, u.ID, models.HomeworkInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.HomeworkInProgress, got.Status)

	got, err = f.svc.Homework.UpdateStatus(ctx, hw.ID, u.ID, models.HomeworkInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.HomeworkInProgress, got.Status)

	_, err = f.svc.Homework.UpdateStatus(ctx, hw.ID, u.ID, models.HomeworkNotStarted)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = f.svc.Homework.UpdateStatus(ctx, hw.ID, u.ID, models.HomeworkGraded)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	// the admin edit may set anything
	back := models.HomeworkNotStarted
	got, err = f.svc.Homework.UpdateHomework(ctx, hw.ID, &dto.UpdateHomeworkRequest{Status: &back})
	require.NoError(t, err)
	assert.Equal(t, models.HomeworkNotStarted, got.Status)
}

func TestGradeRequiresSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)
	hw := newHomework(t, f, u.ID)

	_, err := f.svc.Homework.Grade(ctx, hw.ID, &dto.GradeHomeworkRequest{Grade: intPtr(90)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = f.svc.Homework.Submit(ctx, hw.ID, u.ID, "done")
	require.NoError(t, err)

	_, err = f.svc.Homework.Grade(ctx, hw.ID, &dto.GradeHomeworkRequest{Grade: intPtr(101)})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	graded, err := f.svc.Homework.Grade(ctx, hw.ID, &dto.GradeHomeworkRequest{Grade: intPtr(90), Feedback: "Great"})
	require.NoError(t, err)
	assert.Equal(t, models.HomeworkGraded, graded.Status)
	assert.Equal(t, 90, *graded.Grade)
	assert.Equal(t, 1, f.notifier.count("graded"))

	regraded, err := f.svc.Homework.Grade(ctx, hw.ID, &dto.GradeHomeworkRequest{Grade: intPtr(95)})
	require.NoError(t, err)
	assert.Equal(t, 95, *regraded.Grade)
}

func TestHomeworkVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Ada", "a@x.com", false)
	student := f.user(t, "Bob", "b@x.com", false)
	stranger := f.user(t, "Cyd", "c@x.com", false)
	admin := f.user(t, "Admin", "admin@x.com", true)

	course, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "CBT", Status: models.CourseStatusActive})
	require.NoError(t, err)
	_, err = f.svc.Course.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	personal := newHomework(t, f, owner.ID)
	courseWide, err := f.svc.Homework.CreateHomework(ctx, &dto.CreateHomeworkRequest{Title: "Week 1", CourseID: int64Ptr(course.ID)})
	require.NoError(t, err)
	assert.Equal(t, models.HomeworkTypeAssignment, courseWide.Type)

	_, err = f.svc.Homework.GetHomework(ctx, personal.ID, owner.ID)
	assert.NoError(t, err)
	_, err = f.svc.Homework.GetHomework(ctx, personal.ID, admin.ID)
	assert.NoError(t, err)
	_, err = f.svc.Homework.GetHomework(ctx, personal.ID, stranger.ID)
	assert.ErrorIs(t, err, apperrors.ErrHomeworkNotFound)

	_, err = f.svc.Homework.GetHomework(ctx, courseWide.ID, student.ID)
	assert.NoError(t, err)
	_, err = f.svc.Homework.GetHomework(ctx, courseWide.ID, owner.ID)
	assert.ErrorIs(t, err, apperrors.ErrHomeworkNotFound)

	mine, err := f.svc.Homework.ListMyHomework(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, courseWide.ID, mine[0].ID)

	_, err = f.svc.Homework.CreateHomework(ctx, &dto.CreateHomeworkRequest{Title: "Nobody's"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestCourseHomeworkKeepsStudentWorkPrivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "Ada", "a@x.com", false)
	bob := f.user(t, "Bob", "b@x.com", false)
	admin := f.user(t, "Admin", "admin@x.com", true)

	course, err := f.svc.Course.CreateCourse(ctx, &dto.CreateCourseRequest{Title: "CBT", Status: models.CourseStatusActive})
	require.NoError(t, err)
	for _, u := range []*models.User{ada, bob} {
		_, err = f.svc.Course.Enroll(ctx, course.ID, u.ID)
		require.NoError(t, err)
	}

	journal, err := f.svc.Homework.CreateHomework(ctx, &dto.CreateHomeworkRequest{
		Title:            "Mood journal",
		Type:             models.HomeworkTypeReflection,
		AssignedToUserID: int64Ptr(ada.ID),
		CourseID:         int64Ptr(course.ID),
	})
	require.NoError(t, err)
	_, err = f.svc.Homework.Submit(ctx, journal.ID, ada.ID, "Ada's private journal")
	require.NoError(t, err)

	seen, err := f.svc.Homework.GetHomework(ctx, journal.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, seen.StudentResponse)
	assert.Nil(t, seen.SubmittedAt)
	assert.Equal(t, models.HomeworkNotStarted, seen.Status)

	mine, err := f.svc.Homework.ListMyHomework(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Nil(t, mine[0].StudentResponse)

	_, err = f.svc.Homework.Submit(ctx, journal.ID, bob.ID, "Bob overwrote it")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Homework.UpdateStatus(ctx, journal.ID, bob.ID, models.HomeworkInProgress)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	stored, err := f.svc.Homework.GetHomework(ctx, journal.ID, ada.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StudentResponse)
	assert.Equal(t, "Ada's private journal", *stored.StudentResponse)
	assert.Equal(t, models.HomeworkCompleted, stored.Status)

	graded, err := f.svc.Homework.Grade(ctx, journal.ID, &dto.GradeHomeworkRequest{Grade: intPtr(80), Feedback: "Thoughtful"})
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)

	seen, err = f.svc.Homework.GetHomework(ctx, journal.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, seen.Grade)
	assert.Nil(t, seen.Feedback)

	viaAdmin, err := f.svc.Homework.GetHomework(ctx, journal.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada's private journal", *viaAdmin.StudentResponse)
	assert.Equal(t, 80, *viaAdmin.Grade)

	// course-only homework is answered through questions, which are kept per student
	courseWide, err := f.svc.Homework.CreateHomework(ctx, &dto.CreateHomeworkRequest{Title: "Week 1", CourseID: int64Ptr(course.ID)})
	require.NoError(t, err)
	_, err = f.svc.Homework.Submit(ctx, courseWide.ID, ada.ID, "shared")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSubmitAcceptsEmptyResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)
	hw := newHomework(t, f, u.ID)

	got, err := f.svc.Homework.Submit(ctx, hw.ID, u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.HomeworkCompleted, got.Status)
	require.NotNil(t, got.StudentResponse)
	assert.Equal(t, "", *got.StudentResponse)
}

func TestQuestionOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)
	hw := newHomework(t, f, u.ID)

	cases := []struct {
		name    string
		kind    models.QuestionKind
		options string
		ok      bool
	}{
		{"text without options", models.QuestionText, "", true},
		{"text with options", models.QuestionText, `["a","b"]`, false},
		{"choice without options", models.QuestionSingleChoice, "", false},
		{"one option", models.QuestionSingleChoice, `["only"]`, false},
		{"empty option", models.QuestionSingleChoice, `["a",""]`, false},
		{"blank option", models.QuestionSingleChoice, `["a","   "]`, false},
		{"duplicate options", models.QuestionMultiChoice, `["a","a"]`, false},
		{"not strings", models.QuestionMultiChoice, `[1,2]`, false},
		{"not an array", models.QuestionMultiChoice, `{"a":1}`, false},
		{"eleven options", models.QuestionMultiChoice, `["1","2","3","4","5","6","7","8","9","10","11"]`, false},
		{"valid", models.QuestionSingleChoice, `["calm","anxious","neutral"]`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &dto.CreateQuestionRequest{Prompt: "How do you feel?", Kind: tc.kind}
			if tc.options != "" {
				req.Options = json.RawMessage(tc.options)
			}
			_, err := f.svc.Homework.CreateQuestion(ctx, hw.ID, req)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			}
		})
	}
}

func TestSubmitResponses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ada", "a@x.com", false)
	hw := newHomework(t, f, u.ID)

	single, err := f.svc.Homework.CreateQuestion(ctx, hw.ID, &dto.CreateQuestionRequest{
		Prompt: "Mood", Kind: models.QuestionSingleChoice, Options: json.RawMessage(`["calm","anxious"]`),
	})
	require.NoError(t, err)
	multi, err := f.svc.Homework.CreateQuestion(ctx, hw.ID, &dto.CreateQuestionRequest{
		Prompt: "Triggers", Kind: models.QuestionMultiChoice, Options: json.RawMessage(`["work","family","sleep"]`), Position: 1,
	})
	require.NoError(t, err)
	text, err := f.svc.Homework.CreateQuestion(ctx, hw.ID, &dto.CreateQuestionRequest{Prompt: "Notes", Position: 2})
	require.NoError(t, err)

	_, err = f.svc.Homework.SubmitResponses(ctx, hw.ID, u.ID, &dto.SubmitResponsesRequest{Answers: []dto.AnswerRequest{
		{QuestionID: single.ID, Answer: "happy"},
	}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.Homework.SubmitResponses(ctx, hw.ID, u.ID, &dto.SubmitResponsesRequest{Answers: []dto.AnswerRequest{
		{QuestionID: multi.ID, Answer: `["work","travel"]`},
	}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	saved, err := f.svc.Homework.SubmitResponses(ctx, hw.ID, u.ID, &dto.SubmitResponsesRequest{Answers: []dto.AnswerRequest{
		{QuestionID: single.ID, Answer: "calm"},
		{QuestionID: multi.ID, Answer: `["work","sleep"]`},
		{QuestionID: text.ID, Answer: "Slept badly"},
	}})
	require.NoError(t, err)
	assert.Len(t, saved, 3)

	// answering again replaces the previous answer
	_, err = f.svc.Homework.SubmitResponses(ctx, hw.ID, u.ID, &dto.SubmitResponsesRequest{Answers: []dto.AnswerRequest{
		{QuestionID: single.ID, Answer: "anxious"},
	}})
	require.NoError(t, err)

	all, err := f.svc.Homework.ListResponses(ctx, hw.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, r := range all {
		if r.QuestionID == single.ID {
			assert.Equal(t, "anxious", r.Answer)
		}
	}

	other := newHomework(t, f, u.ID)
	_, err = f.svc.Homework.SubmitResponses(ctx, other.ID, u.ID, &dto.SubmitResponsesRequest{Answers: []dto.AnswerRequest{
		{QuestionID: text.ID, Answer: "wrong homework"},
	}})
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)
}
