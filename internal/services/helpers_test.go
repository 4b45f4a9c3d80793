package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store         *inmemory.Store
	notifications *NotificationService
	relationships *RelationshipService
	content       *ContentService
	moderation    *ModerationService
}

// newTestEnv wires every service over one in-memory store with a clock that
// advances a second per call.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := inmemory.New()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	clock := func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Second)
	}

	notifications := NewNotificationService(store)
	notifications.now = clock
	relationships := NewRelationshipService(store, notifications)
	relationships.now = clock
	content := NewContentService(store, notifications, NewContentFilter())
	content.now = clock
	moderation := NewModerationService(store)
	moderation.now = clock

	return &testEnv{
		store:         store,
		notifications: notifications,
		relationships: relationships,
		content:       content,
		moderation:    moderation,
	}
}

func (e *testEnv) user(t *testing.T, username string, private bool) *models.User {
	t.Helper()
	u, err := e.relationships.CreateUser(context.Background(), "", username, private)
	require.NoError(t, err)
	return u
}

func (e *testEnv) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) post(t *testing.T, owner *models.User) *models.Post {
	t.Helper()
	p, err := e.content.CreatePost(context.Background(), owner.ID, "caption", "media/1.jpg")
	require.NoError(t, err)
	return p
}

// assertCounterMatches checks the unread counter against the stored rows.
func (e *testEnv) assertCounterMatches(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	count, err := e.store.CountUnreadNotifications(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int(count), e.reload(t, userID).UnreadNotifications)
}

// assertSentinel checks err is the exact sentinel, not just one sharing its
// code.
func assertSentinel(t *testing.T, want *apperr.Error, err error) {
	t.Helper()
	var got *apperr.Error
	if assert.True(t, errors.As(err, &got), "error %v is not an *apperr.Error", err) {
		assert.Same(t, want, got)
	}
}
