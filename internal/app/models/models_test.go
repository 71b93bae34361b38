package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHomeworkStatusForwardOnly(t *testing.T) {
	order := []HomeworkStatus{HomeworkNotStarted, HomeworkInProgress, HomeworkCompleted, HomeworkGraded}
	for i, from := range order {
		for j, to := range order {
			assert.Equal(t, j >= i, from.CanAdvanceTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, HomeworkStatus("DONE").CanAdvanceTo(HomeworkGraded))
	assert.False(t, HomeworkNotStarted.CanAdvanceTo("DONE"))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, CourseStatusDraft.Valid())
	assert.False(t, CourseStatus("ARCHIVED").Valid())
	assert.True(t, HomeworkTypeQuiz.Valid())
	assert.False(t, HomeworkType("ESSAY").Valid())
	assert.True(t, AchievementCertificate.Valid())
	assert.False(t, AchievementType("TROPHY").Valid())
	assert.True(t, QuestionMultiChoice.IsChoice())
	assert.False(t, QuestionText.IsChoice())
	assert.False(t, QuestionKind("SCALE").Valid())
}
