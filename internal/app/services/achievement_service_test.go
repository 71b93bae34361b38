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

func TestAwardAndRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "Ada", "a@x.com", false)

	a, err := f.svc.Achievement.CreateAchievement(ctx, &dto.CreateAchievementRequest{Title: "First Workshop", Icon: "star"})
	require.NoError(t, err)
	assert.Equal(t, models.AchievementBadge, a.Type)

	_, err = f.svc.Achievement.CreateAchievement(ctx, &dto.CreateAchievementRequest{Title: "First Workshop"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	res, err := f.svc.Achievement.Award(ctx, a.ID, ada.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Members)

	res, err = f.svc.Achievement.Award(ctx, a.ID, ada.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Members)

	mine, err := f.svc.Achievement.ListMyAchievements(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.NotNil(t, mine[0].AwardedAt)

	_, err = f.svc.Achievement.Award(ctx, 999, ada.ID)
	assert.ErrorIs(t, err, apperrors.ErrAchievementNotFound)
	_, err = f.svc.Achievement.Award(ctx, a.ID, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	res, err = f.svc.Achievement.Revoke(ctx, a.ID, ada.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 0, res.Members)

	res, err = f.svc.Achievement.Revoke(ctx, a.ID, ada.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	holders, err := f.svc.Achievement.ListHolders(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, holders)
}
