package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func TestDirectMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "Ada", "a@x.com", false)
	bob := f.user(t, "Bob", "b@x.com", false)
	cyd := f.user(t, "Cyd", "c@x.com", false)

	_, err := f.svc.Message.SendDirect(ctx, ada.ID, &dto.SendMessageRequest{RecipientID: ada.ID, Content: "hi me"})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = f.svc.Message.SendDirect(ctx, ada.ID, &dto.SendMessageRequest{RecipientID: 999, Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.svc.Message.SendDirect(ctx, ada.ID, &dto.SendMessageRequest{RecipientID: bob.ID, Content: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	msg, err := f.svc.Message.SendDirect(ctx, ada.ID, &dto.SendMessageRequest{RecipientID: bob.ID, Content: "See you Monday"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", msg.SenderName)
	require.Len(t, f.publisher.out, 1)
	assert.Equal(t, []int64{bob.ID}, f.publisher.out[0].userIDs)

	unread, err := f.svc.Message.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	_, err = f.svc.Message.MarkRead(ctx, ada.ID, msg.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	read, err := f.svc.Message.MarkRead(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	unread, err = f.svc.Message.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	inbox, err := f.svc.Message.Inbox(ctx, bob.ID, dto.MessageListFilter{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inbox.Pagination.TotalItems)

	convo, err := f.svc.Message.Conversation(ctx, bob.ID, ada.ID)
	require.NoError(t, err)
	assert.Len(t, convo, 1)

	assert.ErrorIs(t, f.svc.Message.Delete(ctx, cyd.ID, msg.ID), apperrors.ErrPermissionDenied)
	assert.NoError(t, f.svc.Message.Delete(ctx, ada.ID, msg.ID))
	assert.ErrorIs(t, f.svc.Message.Delete(ctx, ada.ID, msg.ID), apperrors.ErrMessageNotFound)
}

func TestAdminDeletesAnyMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "Ada", "a@x.com", false)
	bob := f.user(t, "Bob", "b@x.com", false)
	admin := f.user(t, "Admin", "admin@x.com", true)

	msg, err := f.svc.Message.SendDirect(ctx, ada.ID, &dto.SendMessageRequest{RecipientID: bob.ID, Content: "hello"})
	require.NoError(t, err)
	assert.NoError(t, f.svc.Message.Delete(ctx, admin.ID, msg.ID))
}

func TestWorkshopMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "Ada", "a@x.com", false)
	bob := f.user(t, "Bob", "b@x.com", false)
	stranger := f.user(t, "Cyd", "c@x.com", false)
	admin := f.user(t, "Admin", "admin@x.com", true)

	w, err := f.svc.Workshop.CreateWorkshop(ctx, &dto.CreateWorkshopRequest{Title: "Mindfulness"})
	require.NoError(t, err)
	for _, u := range []int64{ada.ID, bob.ID} {
		_, err := f.svc.Workshop.Attend(ctx, w.ID, u)
		require.NoError(t, err)
	}

	_, err = f.svc.Message.SendToWorkshop(ctx, stranger.ID, w.ID, &dto.SendGroupMessageRequest{Content: "let me in"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Message.WorkshopMessages(ctx, stranger.ID, w.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Message.SendToWorkshop(ctx, ada.ID, 999, &dto.SendGroupMessageRequest{Content: "anyone?"})
	assert.ErrorIs(t, err, apperrors.ErrWorkshopNotFound)

	msg, err := f.svc.Message.SendToWorkshop(ctx, ada.ID, w.ID, &dto.SendGroupMessageRequest{Content: "Slides are up"})
	require.NoError(t, err)
	require.NotNil(t, msg.WorkshopID)
	assert.Nil(t, msg.RecipientID)
	require.Len(t, f.publisher.out, 1)
	assert.Equal(t, []int64{bob.ID}, f.publisher.out[0].userIDs)

	_, err = f.svc.Message.SendToWorkshop(ctx, admin.ID, w.ID, &dto.SendGroupMessageRequest{Content: "Welcome"})
	require.NoError(t, err)
	require.Len(t, f.publisher.out, 2)
	assert.ElementsMatch(t, []int64{ada.ID, bob.ID}, f.publisher.out[1].userIDs)

	all, err := f.svc.Message.WorkshopMessages(ctx, bob.ID, w.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// group messages have no single recipient to mark them read
	_, err = f.svc.Message.MarkRead(ctx, bob.ID, msg.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
