package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_SkipsSelf(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "alice", false)

	err := env.notifications.Notify(context.Background(), models.Notification{
		RecipientID: a.ID,
		SenderID:    a.ID,
		Type:        models.NotificationLike,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, env.reload(t, a.ID).UnreadNotifications)
}

func TestNotificationService_MissingRecipient(t *testing.T) {
	env := newTestEnv(t)
	err := env.notifications.Notify(context.Background(), models.Notification{
		RecipientID: "missing",
		SenderID:    "someone",
		Type:        models.NotificationLike,
	})
	assertSentinel(t, ErrUserNotFound, err)
}

func TestNotificationService_CounterInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	post := env.post(t, owner)

	_, err := env.content.Like(ctx, models.LikeTarget{PostID: post.ID}, fan.ID)
	require.NoError(t, err)
	_, err = env.content.AddComment(ctx, post.ID, fan.ID, "lovely")
	require.NoError(t, err)
	_, err = env.relationships.Follow(ctx, fan.ID, owner.ID)
	require.NoError(t, err)

	count, err := env.notifications.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	env.assertCounterMatches(t, owner.ID)

	flipped, err := env.notifications.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), flipped)

	count, err = env.notifications.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	env.assertCounterMatches(t, owner.ID)

	// Stays at zero until a new event.
	flipped, err = env.notifications.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flipped)

	_, err = env.content.AddComment(ctx, post.ID, fan.ID, "again")
	require.NoError(t, err)
	count, err = env.notifications.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	env.assertCounterMatches(t, owner.ID)
}

func TestNotificationService_ListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	post := env.post(t, owner)

	_, err := env.content.AddComment(ctx, post.ID, fan.ID, "first")
	require.NoError(t, err)
	_, err = env.content.AddComment(ctx, post.ID, fan.ID, "second")
	require.NoError(t, err)

	list, err := env.notifications.List(ctx, owner.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].CommentText)
	assert.Equal(t, models.NotificationComment, list[0].Type)
	assert.Equal(t, post.ID, list[0].PostID)

	list, err = env.notifications.List(ctx, owner.ID, 10, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].CommentText)

	_, err = env.notifications.List(ctx, "missing", 10, 0)
	assertSentinel(t, ErrUserNotFound, err)
}
