package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_CreatePostAddsBackReference(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner", false)

	post := env.post(t, owner)
	assert.Equal(t, []string{post.ID}, env.reload(t, owner.ID).Posts)

	_, err := env.content.CreatePost(context.Background(), "missing", "", "")
	assertSentinel(t, ErrUserNotFound, err)
}

func TestContentService_LikeDedupes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	post := env.post(t, owner)
	target := models.LikeTarget{PostID: post.ID}

	result, err := env.content.Like(ctx, target, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.True(t, result.Changed)

	result, err = env.content.Like(ctx, target, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.False(t, result.Changed)

	got, err := env.content.GetPost(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Len(t, got.Likes, 1)

	// Only the first like notifies.
	assert.Equal(t, 1, env.reload(t, owner.ID).UnreadNotifications)
	env.assertCounterMatches(t, owner.ID)
}

func TestContentService_UnlikeIsNoopWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	post := env.post(t, owner)
	target := models.LikeTarget{PostID: post.ID}

	_, err := env.content.Like(ctx, target, owner.ID)
	require.NoError(t, err)

	result, err := env.content.Unlike(ctx, target, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.False(t, result.Changed)

	result, err = env.content.Unlike(ctx, target, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.True(t, result.Changed)
}

func TestContentService_LikeOwnPostDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner", false)
	post := env.post(t, owner)

	_, err := env.content.Like(context.Background(), models.LikeTarget{PostID: post.ID}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, env.reload(t, owner.ID).UnreadNotifications)
}

func TestContentService_ConcurrentLikesFromDifferentUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	post := env.post(t, owner)

	fans := make([]*models.User, 10)
	for i := range fans {
		fans[i] = env.user(t, "fan"+strings.Repeat("x", i+1), false)
	}

	var wg sync.WaitGroup
	for _, fan := range fans {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = env.content.Like(ctx, models.LikeTarget{PostID: post.ID}, id)
		}(fan.ID)
	}
	wg.Wait()

	got, err := env.content.GetPost(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Len(t, got.Likes, len(fans))
	env.assertCounterMatches(t, owner.ID)
}

func TestContentService_CommentReplyLikeLevels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	commenter := env.user(t, "commenter", false)
	replier := env.user(t, "replier", false)
	post := env.post(t, owner)

	comments, err := env.content.AddComment(ctx, post.ID, commenter.ID, "  nice shot  ")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice shot", comments[0].Text)
	commentID := comments[0].ID

	comment, err := env.content.AddReply(ctx, post.ID, commentID, replier.ID, "agreed")
	require.NoError(t, err)
	require.Len(t, comment.Replies, 1)
	replyID := comment.Replies[0].ID

	commentTarget := models.LikeTarget{PostID: post.ID, CommentID: commentID}
	replyTarget := models.LikeTarget{PostID: post.ID, CommentID: commentID, ReplyID: replyID}

	res, err := env.content.Like(ctx, commentTarget, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "comment", res.Level)
	assert.Equal(t, 1, res.Count)

	res, err = env.content.Like(ctx, replyTarget, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "reply", res.Level)
	res, err = env.content.Like(ctx, replyTarget, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	got, err := env.content.GetComment(ctx, post.ID, commentID, "")
	require.NoError(t, err)
	assert.Len(t, got.Likes, 1)
	assert.Len(t, got.Replies[0].Likes, 1)

	// comment -> owner, reply -> commenter, two likes -> commenter and replier.
	assert.Equal(t, 1, env.reload(t, owner.ID).UnreadNotifications)
	assert.Equal(t, 2, env.reload(t, commenter.ID).UnreadNotifications)
	assert.Equal(t, 1, env.reload(t, replier.ID).UnreadNotifications)

	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID, CommentID: "missing"}, owner.ID)
	assertSentinel(t, ErrCommentNotFound, err)
	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID, CommentID: commentID, ReplyID: "missing"}, owner.ID)
	assertSentinel(t, ErrReplyNotFound, err)
	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID, ReplyID: replyID}, owner.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestContentService_CommentsKeepInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	post := env.post(t, owner)

	for _, text := range []string{"one", "two", "three"} {
		_, err := env.content.AddComment(ctx, post.ID, owner.ID, text)
		require.NoError(t, err)
	}
	got, err := env.content.GetPost(ctx, post.ID, "")
	require.NoError(t, err)
	require.Len(t, got.Comments, 3)
	assert.Equal(t, "one", got.Comments[0].Text)
	assert.Equal(t, "three", got.Comments[2].Text)
	assert.True(t, got.Comments[0].CommentedAt.Before(got.Comments[2].CommentedAt))
}

func TestContentService_AddCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	post := env.post(t, owner)

	tests := []struct {
		name string
		text string
		want *apperr.Error
	}{
		{"empty", "   ", ErrInvalidText},
		{"too long", strings.Repeat("a ", 1001), ErrInvalidText},
		{"banned word", "what a scam", nil},
		{"link", "see https://example.com", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.content.AddComment(ctx, post.ID, owner.ID, tt.text)
			if tt.want == nil {
				var rejected *ContentRejectedError
				assert.ErrorAs(t, err, &rejected)
				assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
				return
			}
			assertSentinel(t, tt.want, err)
		})
	}

	_, err := env.content.AddComment(ctx, "missing", owner.ID, "hi")
	assertSentinel(t, ErrPostNotFound, err)

	_, err = env.content.AddReply(ctx, post.ID, "missing", owner.ID, "hi")
	assertSentinel(t, ErrCommentNotFound, err)
}

func TestContentService_DeleteCommentRemovesReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	commenter := env.user(t, "commenter", false)
	stranger := env.user(t, "stranger", false)
	post := env.post(t, owner)

	comments, err := env.content.AddComment(ctx, post.ID, commenter.ID, "first")
	require.NoError(t, err)
	_, err = env.content.AddComment(ctx, post.ID, stranger.ID, "second")
	require.NoError(t, err)
	commentID := comments[0].ID
	for i := 0; i < 3; i++ {
		_, err = env.content.AddReply(ctx, post.ID, commentID, stranger.ID, "reply")
		require.NoError(t, err)
	}

	before, err := env.content.GetPost(ctx, post.ID, "")
	require.NoError(t, err)

	err = env.content.DeleteComment(ctx, post.ID, commentID, stranger.ID)
	assertSentinel(t, ErrNotCommentAuthor, err)

	require.NoError(t, env.content.DeleteComment(ctx, post.ID, commentID, commenter.ID))

	after, err := env.content.GetPost(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Len(t, after.Comments, len(before.Comments)-1)
	assert.Nil(t, after.FindComment(commentID))

	_, err = env.content.GetComment(ctx, post.ID, commentID, "")
	assertSentinel(t, ErrCommentNotFound, err)
	_, err = env.content.AddReply(ctx, post.ID, commentID, stranger.ID, "late")
	assertSentinel(t, ErrCommentNotFound, err)
}

func TestContentService_PostOwnerMayDeleteAnyComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	commenter := env.user(t, "commenter", false)
	post := env.post(t, owner)

	comments, err := env.content.AddComment(ctx, post.ID, commenter.ID, "hello")
	require.NoError(t, err)
	require.NoError(t, env.content.DeleteComment(ctx, post.ID, comments[0].ID, owner.ID))
}

func TestContentService_DeleteReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	commenter := env.user(t, "commenter", false)
	replier := env.user(t, "replier", false)
	post := env.post(t, owner)

	comments, err := env.content.AddComment(ctx, post.ID, commenter.ID, "hello")
	require.NoError(t, err)
	commentID := comments[0].ID
	comment, err := env.content.AddReply(ctx, post.ID, commentID, replier.ID, "hey")
	require.NoError(t, err)
	replyID := comment.Replies[0].ID

	err = env.content.DeleteReply(ctx, post.ID, commentID, replyID, commenter.ID)
	assertSentinel(t, ErrNotReplyAuthor, err)

	require.NoError(t, env.content.DeleteReply(ctx, post.ID, commentID, replyID, replier.ID))
	err = env.content.DeleteReply(ctx, post.ID, commentID, replyID, replier.ID)
	assertSentinel(t, ErrReplyNotFound, err)
}

func TestContentService_DeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	u3 := env.user(t, "user3", false)
	post := env.post(t, owner)

	_, err := env.content.AddComment(ctx, post.ID, u3.ID, "hi")
	require.NoError(t, err)
	require.NoError(t, env.content.SavePost(ctx, u3.ID, post.ID))

	_, err = env.content.DeletePost(ctx, post.ID, u3.ID)
	assertSentinel(t, ErrNotPostOwner, err)

	result, err := env.content.DeletePost(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = env.content.GetPost(ctx, post.ID, "")
	assertSentinel(t, ErrPostNotFound, err)
	assert.NotContains(t, env.reload(t, owner.ID).Posts, post.ID)
	assert.NotContains(t, env.reload(t, u3.ID).Bookmarks, post.ID)

	result, err = env.content.DeletePost(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, result.Deleted)
}

func TestContentService_SaveAndArchive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	post := env.post(t, owner)

	require.NoError(t, env.content.SavePost(ctx, fan.ID, post.ID))
	require.NoError(t, env.content.SavePost(ctx, fan.ID, post.ID))
	assert.Equal(t, []string{post.ID}, env.reload(t, fan.ID).Bookmarks)
	require.NoError(t, env.content.UnsavePost(ctx, fan.ID, post.ID))
	assert.Empty(t, env.reload(t, fan.ID).Bookmarks)

	assertSentinel(t, ErrPostNotFound, env.content.SavePost(ctx, fan.ID, "missing"))

	_, err := env.content.SetArchived(ctx, post.ID, fan.ID, true)
	assertSentinel(t, ErrNotPostOwner, err)
	archived, err := env.content.SetArchived(ctx, post.ID, owner.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	reel, err := env.content.CreateReel(ctx, owner.ID, "clip", "media/clip.mp4")
	require.NoError(t, err)
	require.NoError(t, env.content.SaveReel(ctx, fan.ID, reel.ID))
	assert.Equal(t, []string{reel.ID}, env.reload(t, fan.ID).SavedReels)
	require.NoError(t, env.content.UnsaveReel(ctx, fan.ID, reel.ID))
	assertSentinel(t, ErrReelNotFound, env.content.SaveReel(ctx, fan.ID, "missing"))
}

func TestContentService_PeerBlockStopsInteraction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	troll := env.user(t, "troll", false)
	post := env.post(t, owner)

	require.NoError(t, env.relationships.Block(ctx, owner.ID, troll.ID))

	_, err := env.content.Like(ctx, models.LikeTarget{PostID: post.ID}, troll.ID)
	assertSentinel(t, ErrBlocked, err)
	_, err = env.content.AddComment(ctx, post.ID, troll.ID, "hello")
	assertSentinel(t, ErrBlocked, err)
}

func TestContentService_PeerBlockCoversEveryParty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	commenter := env.user(t, "commenter", false)
	troll := env.user(t, "troll", false)
	post := env.post(t, owner)

	comments, err := env.content.AddComment(ctx, post.ID, commenter.ID, "first")
	require.NoError(t, err)
	commentID := comments[0].ID
	reply, err := env.content.AddReply(ctx, post.ID, commentID, commenter.ID, "and again")
	require.NoError(t, err)
	replyID := reply.Replies[0].ID

	require.NoError(t, env.relationships.Block(ctx, commenter.ID, troll.ID))
	unread := env.reload(t, commenter.ID).UnreadNotifications

	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID, CommentID: commentID}, troll.ID)
	assertSentinel(t, ErrBlocked, err)
	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID, CommentID: commentID, ReplyID: replyID}, troll.ID)
	assertSentinel(t, ErrBlocked, err)
	_, err = env.content.AddReply(ctx, post.ID, commentID, troll.ID, "hey")
	assertSentinel(t, ErrBlocked, err)
	assert.Equal(t, unread, env.reload(t, commenter.ID).UnreadNotifications)

	got, err := env.content.GetComment(ctx, post.ID, commentID, "")
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
	assert.Len(t, got.Replies, 1)

	// The post owner is outside the block.
	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID}, troll.ID)
	require.NoError(t, err)
}

func TestContentService_PostOwnerBlockStopsRepliesToOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	commenter := env.user(t, "commenter", false)
	troll := env.user(t, "troll", false)
	post := env.post(t, owner)

	comments, err := env.content.AddComment(ctx, post.ID, commenter.ID, "first")
	require.NoError(t, err)
	commentID := comments[0].ID

	require.NoError(t, env.relationships.Block(ctx, owner.ID, troll.ID))
	unread := env.reload(t, commenter.ID).UnreadNotifications

	_, err = env.content.AddReply(ctx, post.ID, commentID, troll.ID, "hey")
	assertSentinel(t, ErrBlocked, err)
	_, err = env.content.Like(ctx, models.LikeTarget{PostID: post.ID, CommentID: commentID}, troll.ID)
	assertSentinel(t, ErrBlocked, err)
	assert.Equal(t, unread, env.reload(t, commenter.ID).UnreadNotifications)
}

func TestContentService_BlockHidesContentFromViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	troll := env.user(t, "troll", false)
	post := env.post(t, owner)

	_, err := env.content.AddComment(ctx, post.ID, troll.ID, "troll comment")
	require.NoError(t, err)
	comments, err := env.content.AddComment(ctx, post.ID, fan.ID, "fan comment")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	fanComment := comments[1].ID
	_, err = env.content.AddReply(ctx, post.ID, fanComment, troll.ID, "troll reply")
	require.NoError(t, err)

	require.NoError(t, env.relationships.Block(ctx, fan.ID, troll.ID))

	seen, err := env.content.GetPost(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	require.Len(t, seen.Comments, 1)
	assert.Equal(t, fanComment, seen.Comments[0].ID)
	assert.Empty(t, seen.Comments[0].Replies)

	comment, err := env.content.GetComment(ctx, post.ID, fanComment, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, comment.Replies)

	full, err := env.content.GetPost(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, full.Comments, 2)
	assert.Len(t, full.Comments[1].Replies, 1)

	require.NoError(t, env.relationships.Block(ctx, owner.ID, troll.ID))
	_, err = env.content.GetPost(ctx, post.ID, troll.ID)
	assertSentinel(t, ErrPostNotFound, err)
	_, err = env.content.GetComment(ctx, post.ID, fanComment, troll.ID)
	assertSentinel(t, ErrPostNotFound, err)
}

func TestContentService_ListPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	troll := env.user(t, "troll", false)
	first := env.post(t, owner)
	archived := env.post(t, owner)
	last := env.post(t, owner)

	_, err := env.content.SetArchived(ctx, archived.ID, owner.ID, true)
	require.NoError(t, err)

	posts, err := env.content.ListPosts(ctx, owner.ID, fan.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{last.ID, first.ID}, postIDs(posts))

	posts, err = env.content.ListPosts(ctx, owner.ID, owner.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{archived.ID}, postIDs(posts))

	_, err = env.content.ListPosts(ctx, owner.ID, fan.ID, true)
	assertSentinel(t, ErrNotPostOwner, err)

	_, err = env.content.DeletePost(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	posts, err = env.content.ListPosts(ctx, owner.ID, fan.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{last.ID}, postIDs(posts))

	require.NoError(t, env.relationships.Block(ctx, owner.ID, troll.ID))
	_, err = env.content.ListPosts(ctx, owner.ID, troll.ID, false)
	assertSentinel(t, ErrUserNotFound, err)

	_, err = env.content.ListPosts(ctx, "missing", fan.ID, false)
	assertSentinel(t, ErrUserNotFound, err)
}

func TestContentService_ListSavedPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	troll := env.user(t, "troll", false)
	first := env.post(t, owner)
	hidden := env.post(t, owner)
	own := env.post(t, fan)
	blocked := env.post(t, troll)

	for _, id := range []string{first.ID, hidden.ID, own.ID, blocked.ID} {
		require.NoError(t, env.content.SavePost(ctx, fan.ID, id))
	}
	require.NoError(t, env.store.AddToSet(ctx, fan.ID, models.SetBookmarks, "gone"))
	_, err := env.content.SetArchived(ctx, hidden.ID, owner.ID, true)
	require.NoError(t, err)
	require.NoError(t, env.relationships.Block(ctx, troll.ID, fan.ID))

	posts, err := env.content.ListSavedPosts(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{own.ID, first.ID}, postIDs(posts))

	_, err = env.content.ListSavedPosts(ctx, "missing")
	assertSentinel(t, ErrUserNotFound, err)
}

func TestContentService_ListSavedReels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	troll := env.user(t, "troll", false)

	var ids []string
	for _, creator := range []*models.User{owner, owner, troll} {
		reel, err := env.content.CreateReel(ctx, creator.ID, "clip", "media/clip.mp4")
		require.NoError(t, err)
		require.NoError(t, env.content.SaveReel(ctx, fan.ID, reel.ID))
		ids = append(ids, reel.ID)
	}
	require.NoError(t, env.store.AddToSet(ctx, fan.ID, models.SetSavedReels, "gone"))
	require.NoError(t, env.relationships.Block(ctx, troll.ID, fan.ID))

	reels, err := env.content.ListSavedReels(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, reels, 2)
	assert.Equal(t, ids[1], reels[0].ID)
	assert.Equal(t, ids[0], reels[1].ID)
}

func TestContentService_DeletePostAfterPartialCleanup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)
	fan := env.user(t, "fan", false)
	post := env.post(t, owner)
	require.NoError(t, env.content.SavePost(ctx, fan.ID, post.ID))

	// An earlier attempt pulled the back-references and stopped before the
	// document was removed.
	require.NoError(t, env.store.RemoveFromSet(ctx, owner.ID, models.SetPosts, post.ID))
	_, err := env.store.RemoveFromAllSets(ctx, models.SetBookmarks, post.ID)
	require.NoError(t, err)
	_, err = env.content.GetPost(ctx, post.ID, "")
	require.NoError(t, err)

	result, err := env.content.DeletePost(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = env.content.GetPost(ctx, post.ID, "")
	assertSentinel(t, ErrPostNotFound, err)
	assert.Empty(t, env.reload(t, owner.ID).Posts)
	assert.Empty(t, env.reload(t, fan.ID).Bookmarks)
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestContentService_SuspendedUserCannotPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner", false)

	_, err := env.moderation.AdminBlock(ctx, owner.ID)
	require.NoError(t, err)

	_, err = env.content.CreatePost(ctx, owner.ID, "", "")
	assertSentinel(t, ErrUserSuspended, err)
}
