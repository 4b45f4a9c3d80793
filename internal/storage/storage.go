// Package storage defines the persistence boundary. Every method touches a
// single document (or, for postgres, a single transaction scoped to one
// logical document) and is safe to re-issue; cross-document consistency is
// the services' job.
package storage

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
)

var (
	// ErrNotFound indicates the addressed document or sub-document is absent.
	ErrNotFound = apperr.New(apperr.CodeNotFound, "record not found")
	// ErrConflict indicates a uniqueness constraint would be violated.
	ErrConflict = apperr.New(apperr.CodeConflict, "record conflict")
	// ErrStateMismatch indicates a conditional write found the record in an
	// unexpected state.
	ErrStateMismatch = apperr.New(apperr.CodeInvalidState, "record state changed")
)

// UserStore persists user documents and their id sets.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetPrivacy(ctx context.Context, id string, isPrivate bool) error
	// AddToSet inserts member into the user's set if absent.
	AddToSet(ctx context.Context, userID string, set models.UserSet, member string) error
	// RemoveFromSet removes member from the user's set if present.
	RemoveFromSet(ctx context.Context, userID string, set models.UserSet, member string) error
	// RemoveFromAllSets pulls member out of set on every user and returns how
	// many users were changed.
	RemoveFromAllSets(ctx context.Context, set models.UserSet, member string) (int64, error)
	SetGlobalBlock(ctx context.Context, userID string, blocked bool) error
}

// ContentStore persists posts with their nested comment tree, plus reels and
// stories.
type ContentStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	SetArchived(ctx context.Context, postID string, archived bool) error

	// AddLike appends like to the target's likes unless the user is already
	// present. It returns the resulting count and whether a like was added.
	AddLike(ctx context.Context, target models.LikeTarget, like models.Like) (int, bool, error)
	// RemoveLike removes userID from the target's likes if present.
	RemoveLike(ctx context.Context, target models.LikeTarget, userID string) (int, bool, error)

	// AppendComment appends comment and returns the full comment sequence.
	AppendComment(ctx context.Context, postID string, comment models.Comment) ([]models.Comment, error)
	// AppendReply appends reply to the comment and returns the updated comment.
	AppendReply(ctx context.Context, postID, commentID string, reply models.Reply) (*models.Comment, error)
	// RemoveComment removes the comment with its replies and likes.
	RemoveComment(ctx context.Context, postID, commentID string) error
	RemoveReply(ctx context.Context, postID, commentID, replyID string) error

	CreateReel(ctx context.Context, reel *models.Reel) error
	GetReel(ctx context.Context, id string) (*models.Reel, error)
	DeleteReel(ctx context.Context, id string) error
	CreateStory(ctx context.Context, story *models.Story) error
	DeleteStory(ctx context.Context, id string) error
}

// FollowRequestStore persists the follow request state machine.
type FollowRequestStore interface {
	// CreateFollowRequest fails with ErrConflict when a pending request for
	// the same (requester, recipient) exists.
	CreateFollowRequest(ctx context.Context, req *models.FollowRequest) error
	GetFollowRequest(ctx context.Context, id string) (*models.FollowRequest, error)
	FindPendingFollowRequest(ctx context.Context, requesterID, recipientID string) (*models.FollowRequest, error)
	// TransitionFollowRequest moves a pending request to status. It fails with
	// ErrStateMismatch when the request is no longer pending.
	TransitionFollowRequest(ctx context.Context, id string, status models.FollowRequestStatus, at time.Time) (*models.FollowRequest, error)
	// RejectPendingBetween rejects pending requests between a and b in both
	// directions.
	RejectPendingBetween(ctx context.Context, a, b string, at time.Time) (int64, error)
	// ListFollowRequests returns requests addressed to recipientID, newest
	// first. An empty status matches all.
	ListFollowRequests(ctx context.Context, recipientID string, status models.FollowRequestStatus) ([]models.FollowRequest, error)
}

// NotificationStore persists notifications together with the recipient's
// unread counter. Only the notification service calls it.
type NotificationStore interface {
	// InsertNotification stores n and increments the recipient's unread
	// counter in the same write.
	InsertNotification(ctx context.Context, n *models.Notification) error
	// MarkAllNotificationsRead flips every unread notification of userID and
	// resets the counter to zero.
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
}

// BlockStore persists admin suspension records.
type BlockStore interface {
	// PutBlock inserts the record for block.UserID unless one exists.
	PutBlock(ctx context.Context, block *models.Block) error
	DeleteBlock(ctx context.Context, userID string) error
	GetBlock(ctx context.Context, userID string) (*models.Block, error)
	ListBlocks(ctx context.Context) ([]models.Block, error)
}

// Store is the full persistence contract.
type Store interface {
	UserStore
	ContentStore
	FollowRequestStore
	NotificationStore
	BlockStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
