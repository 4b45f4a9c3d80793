package services

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
)

var (
	ErrUserNotFound          = apperr.New(apperr.CodeNotFound, "user not found")
	ErrPostNotFound          = apperr.New(apperr.CodeNotFound, "post not found")
	ErrCommentNotFound       = apperr.New(apperr.CodeNotFound, "comment not found")
	ErrReplyNotFound         = apperr.New(apperr.CodeNotFound, "reply not found")
	ErrReelNotFound          = apperr.New(apperr.CodeNotFound, "reel not found")
	ErrStoryNotFound         = apperr.New(apperr.CodeNotFound, "story not found")
	ErrFollowRequestNotFound = apperr.New(apperr.CodeNotFound, "follow request not found")

	ErrSelfFollow     = apperr.New(apperr.CodeInvalidArgument, "cannot follow yourself")
	ErrSelfBlock      = apperr.New(apperr.CodeInvalidArgument, "cannot block yourself")
	ErrInvalidText    = apperr.New(apperr.CodeInvalidArgument, "text must be between 1 and 2000 characters")
	ErrInvalidUser    = apperr.New(apperr.CodeInvalidArgument, "username must be between 3 and 50 characters")
	ErrUnknownContent = apperr.New(apperr.CodeInvalidArgument, "content type must be posts, reels or stories")

	ErrBlocked            = apperr.New(apperr.CodeForbidden, "interaction is blocked between these users")
	ErrNotRequestOwner    = apperr.New(apperr.CodeForbidden, "follow request is addressed to another user")
	ErrNotCommentAuthor   = apperr.New(apperr.CodeForbidden, "only the comment author or post owner can delete this comment")
	ErrNotReplyAuthor     = apperr.New(apperr.CodeForbidden, "only the reply author or post owner can delete this reply")
	ErrNotPostOwner       = apperr.New(apperr.CodeForbidden, "only the post owner can do this")
	ErrUserSuspended      = apperr.New(apperr.CodeForbidden, "account is suspended")
	ErrFollowRequestExist = apperr.New(apperr.CodeConflict, "follow request already pending")
	ErrUserExists         = apperr.New(apperr.CodeConflict, "user or username already exists")
	ErrRequestResolved    = apperr.New(apperr.CodeInvalidState, "follow request already resolved")
)

// ContentRejectedError carries the content filter's reason code.
type ContentRejectedError struct {
	Reason string
}

func (e *ContentRejectedError) Error() string {
	return "content rejected: " + e.Reason
}

// Unwrap exposes the InvalidArgument category with a user-facing message.
func (e *ContentRejectedError) Unwrap() error {
	return apperr.New(apperr.CodeInvalidArgument, GetRejectionMessage(e.Reason))
}

// notFound swaps a storage miss for the domain sentinel and passes other
// errors through untouched.
func notFound(err, sentinel error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return sentinel
	}
	return err
}
