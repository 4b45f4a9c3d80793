package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipService_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.relationships.CreateUser(ctx, "", "  alice  ", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, u.ID)

	_, err = env.relationships.CreateUser(ctx, "", "alice", true)
	assertSentinel(t, ErrUserExists, err)

	_, err = env.relationships.CreateUser(ctx, u.ID, "someone", true)
	assertSentinel(t, ErrUserExists, err)

	fixed, err := env.relationships.CreateUser(ctx, "2f1c6d1e-8a57-4d39-9a53-6c1c2b7f0a11", "carol", false)
	require.NoError(t, err)
	assert.Equal(t, "2f1c6d1e-8a57-4d39-9a53-6c1c2b7f0a11", fixed.ID)

	_, err = env.relationships.CreateUser(ctx, "", "ab", false)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestRelationshipService_FollowPublic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", false)

	result, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatusFollowing, result.Status)

	a, b = env.reload(t, a.ID), env.reload(t, b.ID)
	assert.Contains(t, a.Following, b.ID)
	assert.Contains(t, b.Followers, a.ID)
	assert.NotContains(t, a.Followers, b.ID)
	assert.NotContains(t, b.Following, a.ID)

	assert.Equal(t, 1, b.UnreadNotifications)
	list, err := env.notifications.List(ctx, b.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationFollow, list[0].Type)
	assert.Equal(t, a.ID, list[0].SenderID)
}

func TestRelationshipService_FollowIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", false)

	for i := 0; i < 3; i++ {
		_, err := env.relationships.Follow(ctx, a.ID, b.ID)
		require.NoError(t, err)
	}
	b = env.reload(t, b.ID)
	assert.Equal(t, []string{a.ID}, b.Followers)
	assert.Equal(t, 1, b.UnreadNotifications)
}

func TestRelationshipService_FollowRepairsHalfEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", false)

	// Simulate a crash after the first write of the edge.
	require.NoError(t, env.store.AddToSet(ctx, a.ID, models.SetFollowing, b.ID))

	_, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Contains(t, env.reload(t, b.ID).Followers, a.ID)
}

func TestRelationshipService_FollowValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)

	_, err := env.relationships.Follow(ctx, a.ID, a.ID)
	assertSentinel(t, ErrSelfFollow, err)

	_, err = env.relationships.Follow(ctx, a.ID, "missing")
	assertSentinel(t, ErrUserNotFound, err)
}

func TestRelationshipService_FollowPrivateCreatesRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", true)

	result, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatusRequested, result.Status)
	require.NotNil(t, result.Request)
	assert.Equal(t, models.FollowRequestPending, result.Request.Status)

	assert.Empty(t, env.reload(t, a.ID).Following)

	_, err = env.relationships.Follow(ctx, a.ID, b.ID)
	assertSentinel(t, ErrFollowRequestExist, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	list, err := env.notifications.List(ctx, b.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationFollowRequest, list[0].Type)
	assert.Equal(t, result.Request.ID, list[0].FollowRequestID)
}

func TestRelationshipService_AcceptFollowRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", true)
	c := env.user(t, "carol", false)

	result, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	reqID := result.Request.ID

	_, err = env.relationships.AcceptFollowRequest(ctx, "missing", b.ID)
	assertSentinel(t, ErrFollowRequestNotFound, err)

	_, err = env.relationships.AcceptFollowRequest(ctx, reqID, c.ID)
	assertSentinel(t, ErrNotRequestOwner, err)

	accepted, err := env.relationships.AcceptFollowRequest(ctx, reqID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowRequestAccepted, accepted.Status)
	assert.Contains(t, env.reload(t, a.ID).Following, b.ID)
	assert.Contains(t, env.reload(t, b.ID).Followers, a.ID)

	_, err = env.relationships.AcceptFollowRequest(ctx, reqID, b.ID)
	assertSentinel(t, ErrRequestResolved, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = env.relationships.RejectFollowRequest(ctx, reqID, b.ID)
	assertSentinel(t, ErrRequestResolved, err)
}

func TestRelationshipService_RejectFollowRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", true)

	result, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	rejected, err := env.relationships.RejectFollowRequest(ctx, result.Request.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowRequestRejected, rejected.Status)
	assert.Empty(t, env.reload(t, b.ID).Followers)

	// A new request may be opened once the old one is terminal.
	again, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatusRequested, again.Status)

	pending, err := env.relationships.ListFollowRequests(ctx, b.ID, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := env.relationships.ListFollowRequests(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.relationships.ListFollowRequests(ctx, b.ID, "weird")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestRelationshipService_ConcurrentAcceptKeepsEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", true)

	result, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.relationships.AcceptFollowRequest(ctx, result.Request.ID, b.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Contains(t, env.reload(t, a.ID).Following, b.ID)
	assert.Contains(t, env.reload(t, b.ID).Followers, a.ID)
}

func TestRelationshipService_Unfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", false)

	_, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	require.NoError(t, env.relationships.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, env.relationships.Unfollow(ctx, a.ID, b.ID))

	assert.Empty(t, env.reload(t, a.ID).Following)
	assert.Empty(t, env.reload(t, b.ID).Followers)
}

func TestRelationshipService_BlockCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.user(t, "user1", false)
	u2 := env.user(t, "user2", false)

	_, err := env.relationships.Follow(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	_, err = env.relationships.Follow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)

	require.NoError(t, env.relationships.Block(ctx, u1.ID, u2.ID))

	r1, r2 := env.reload(t, u1.ID), env.reload(t, u2.ID)
	assert.NotContains(t, r2.Following, u1.ID)
	assert.NotContains(t, r1.Followers, u2.ID)
	assert.NotContains(t, r1.Following, u2.ID)
	assert.NotContains(t, r2.Followers, u1.ID)
	assert.Contains(t, r1.BlockedUsers, u2.ID)
	assert.Contains(t, r2.BlockedBy, u1.ID)

	_, err = env.relationships.Follow(ctx, u2.ID, u1.ID)
	assertSentinel(t, ErrBlocked, err)
	_, err = env.relationships.Follow(ctx, u1.ID, u2.ID)
	assertSentinel(t, ErrBlocked, err)

	// Idempotent.
	require.NoError(t, env.relationships.Block(ctx, u1.ID, u2.ID))
	assert.Len(t, env.reload(t, u1.ID).BlockedUsers, 1)

	require.NoError(t, env.relationships.Unblock(ctx, u1.ID, u2.ID))
	r1, r2 = env.reload(t, u1.ID), env.reload(t, u2.ID)
	assert.Empty(t, r1.BlockedUsers)
	assert.Empty(t, r2.BlockedBy)
	assert.Empty(t, r2.Following, "unblock does not restore follows")

	_, err = env.relationships.Follow(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
}

func TestRelationshipService_BlockRejectsPendingRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", true)
	b := env.user(t, "bob", true)

	toB, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	toA, err := env.relationships.Follow(ctx, b.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, env.relationships.Block(ctx, b.ID, a.ID))

	for _, id := range []string{toB.Request.ID, toA.Request.ID} {
		req, err := env.store.GetFollowRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.FollowRequestRejected, req.Status)
	}

	_, err = env.relationships.AcceptFollowRequest(ctx, toB.Request.ID, b.ID)
	assertSentinel(t, ErrRequestResolved, err)
}

func TestRelationshipService_BlockValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)

	assertSentinel(t, ErrSelfBlock, env.relationships.Block(ctx, a.ID, a.ID))
	assertSentinel(t, ErrUserNotFound, env.relationships.Block(ctx, a.ID, "missing"))
}

func TestRelationshipService_Queries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", false)
	c := env.user(t, "carol", false)

	_, err := env.relationships.Follow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	_, err = env.relationships.Follow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	require.NoError(t, env.relationships.Block(ctx, c.ID, b.ID))

	followers, err := env.relationships.ListFollowers(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, followers)

	following, err := env.relationships.ListFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, following)

	blocks, err := env.relationships.BlockList(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks.BlockedUsers)
	assert.Equal(t, []string{c.ID}, blocks.BlockedBy)

	updated, err := env.relationships.SetPrivacy(ctx, a.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsPrivate)
}

func TestRelationshipService_SuspendedUserCannotFollowOrAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", true)
	c := env.user(t, "carol", false)

	result, err := env.relationships.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.moderation.AdminBlock(ctx, c.ID)
	require.NoError(t, err)
	_, err = env.relationships.Follow(ctx, c.ID, a.ID)
	assertSentinel(t, ErrUserSuspended, err)
	assert.Empty(t, env.reload(t, a.ID).Followers)
	assert.Zero(t, env.reload(t, a.ID).UnreadNotifications)

	_, err = env.moderation.AdminBlock(ctx, b.ID)
	require.NoError(t, err)
	_, err = env.relationships.AcceptFollowRequest(ctx, result.Request.ID, b.ID)
	assertSentinel(t, ErrUserSuspended, err)
	assert.Empty(t, env.reload(t, b.ID).Followers)

	require.NoError(t, env.moderation.AdminUnblock(ctx, b.ID))
	accepted, err := env.relationships.AcceptFollowRequest(ctx, result.Request.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowRequestAccepted, accepted.Status)
}

func TestRelationshipService_ViewUserHidesBlockedProfiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", false)
	b := env.user(t, "bob", false)
	c := env.user(t, "carol", false)

	require.NoError(t, env.relationships.Block(ctx, a.ID, b.ID))

	_, err := env.relationships.ViewUser(ctx, a.ID, b.ID)
	assertSentinel(t, ErrUserNotFound, err)
	_, err = env.relationships.ViewUser(ctx, b.ID, a.ID)
	assertSentinel(t, ErrUserNotFound, err)

	self, err := env.relationships.ViewUser(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, self.BlockedUsers)

	seen, err := env.relationships.ViewUser(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, seen.ID)
}
