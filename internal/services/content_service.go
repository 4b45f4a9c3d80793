package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTextLength = 2000
	storyLifetime = 24 * time.Hour
)

// LikeResult is the state of a likes set after like or unlike.
type LikeResult struct {
	Level   string `json:"level"`
	Target  string `json:"target_id"`
	Count   int    `json:"count"`
	Changed bool   `json:"changed"`
}

// DeleteResult reports whether a delete removed anything. Deleting an
// already deleted post succeeds with Deleted=false.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// ContentService owns posts and their nested comment, reply and like
// structures, plus the bookmark back-references users keep.
type ContentService struct {
	store    storage.Store
	notifier *NotificationService
	filter   *ContentFilter
	now      func() time.Time
}

// NewContentService wires the service. A nil filter accepts all text.
func NewContentService(store storage.Store, notifier *NotificationService, filter *ContentFilter) *ContentService {
	return &ContentService{store: store, notifier: notifier, filter: filter, now: time.Now}
}

// === Posts ===

func (s *ContentService) CreatePost(ctx context.Context, ownerID, caption, mediaRef string) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "ContentService.CreatePost", attribute.String("actor_id", ownerID))
	defer func() { endSpan(span, err) }()

	if _, err := s.activeUser(ctx, ownerID); err != nil {
		return nil, err
	}
	post = &models.Post{
		ID:        uuid.NewString(),
		CreatedBy: ownerID,
		Caption:   strings.TrimSpace(caption),
		MediaRef:  mediaRef,
		CreatedAt: s.now().UTC(),
		Likes:     []models.Like{},
		Comments:  []models.Comment{},
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	if err := s.store.AddToSet(ctx, ownerID, models.SetPosts, post.ID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	slog.InfoContext(ctx, "post created", "actor_id", ownerID, "post_id", post.ID, "action", "create_post")
	return post, nil
}

// loadPost fetches a post with no visibility rules applied.
func (s *ContentService) loadPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return post, nil
}

// GetPost returns the post as viewerID sees it. A post whose owner and the
// viewer block each other reads as not found, and comments or replies by
// users in a block with the viewer are left out. An empty viewerID sees
// everything.
func (s *ContentService) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer != nil && viewer.Blocks(post.CreatedBy) {
		return nil, ErrPostNotFound
	}
	post.Comments = hideBlocked(post.Comments, viewer)
	return post, nil
}

func (s *ContentService) GetComment(ctx context.Context, postID, commentID, viewerID string) (*models.Comment, error) {
	post, err := s.GetPost(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

// viewer loads the reading user. Unknown ids have no blocks, so they read
// like anonymous viewers.
func (s *ContentService) viewer(ctx context.Context, viewerID string) (*models.User, error) {
	if viewerID == "" {
		return nil, nil
	}
	user, err := s.store.GetUser(ctx, viewerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// hideBlocked drops comments and replies written by users in a peer block
// with viewer. The input slice is not modified.
func hideBlocked(comments []models.Comment, viewer *models.User) []models.Comment {
	if viewer == nil {
		return comments
	}
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if viewer.Blocks(c.UserID) {
			continue
		}
		replies := make([]models.Reply, 0, len(c.Replies))
		for _, r := range c.Replies {
			if !viewer.Blocks(r.UserID) {
				replies = append(replies, r)
			}
		}
		c.Replies = replies
		out = append(out, c)
	}
	return out
}

// DeletePost removes a post owned by requesterID. The owner's posts entry and
// every bookmark are pulled before the document goes, so re-issuing after a
// crash finishes the cleanup.
func (s *ContentService) DeletePost(ctx context.Context, postID, requesterID string) (result *DeleteResult, err error) {
	ctx, span := startSpan(ctx, "ContentService.DeletePost",
		attribute.String("post_id", postID), attribute.String("actor_id", requesterID))
	defer func() { endSpan(span, err) }()

	post, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, storage.ErrNotFound) {
		return &DeleteResult{Deleted: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if post.CreatedBy != requesterID {
		return nil, ErrNotPostOwner
	}
	deleted, err := purgePost(ctx, s.store, post)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "post deleted", "actor_id", requesterID, "post_id", postID, "action", "delete_post")
	return &DeleteResult{Deleted: deleted}, nil
}

// purgePost repairs back-references to post and then removes it. It reports
// false when the document was already gone.
func purgePost(ctx context.Context, store storage.Store, post *models.Post) (bool, error) {
	if err := store.RemoveFromSet(ctx, post.CreatedBy, models.SetPosts, post.ID); err != nil &&
		!errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	if _, err := store.RemoveFromAllSets(ctx, models.SetBookmarks, post.ID); err != nil {
		return false, err
	}
	if err := store.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetArchived hides or restores a post. Owner only.
func (s *ContentService) SetArchived(ctx context.Context, postID, requesterID string, archived bool) (*models.Post, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatedBy != requesterID {
		return nil, ErrNotPostOwner
	}
	if err := s.store.SetArchived(ctx, postID, archived); err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	post.IsArchived = archived
	return post, nil
}

// === Bookmarks ===

func (s *ContentService) SavePost(ctx context.Context, userID, postID string) error {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return err
	}
	return notFound(s.store.AddToSet(ctx, userID, models.SetBookmarks, postID), ErrUserNotFound)
}

// UnsavePost does not require the post to exist so stale bookmarks can be
// cleared.
func (s *ContentService) UnsavePost(ctx context.Context, userID, postID string) error {
	return notFound(s.store.RemoveFromSet(ctx, userID, models.SetBookmarks, postID), ErrUserNotFound)
}

func (s *ContentService) SaveReel(ctx context.Context, userID, reelID string) error {
	if _, err := s.store.GetReel(ctx, reelID); err != nil {
		return notFound(err, ErrReelNotFound)
	}
	return notFound(s.store.AddToSet(ctx, userID, models.SetSavedReels, reelID), ErrUserNotFound)
}

func (s *ContentService) UnsaveReel(ctx context.Context, userID, reelID string) error {
	return notFound(s.store.RemoveFromSet(ctx, userID, models.SetSavedReels, reelID), ErrUserNotFound)
}

// ListPosts returns ownerID's posts newest first as viewerID sees them.
// Archived posts are listed only for the owner with archived set.
func (s *ContentService) ListPosts(ctx context.Context, ownerID, viewerID string, archived bool) ([]models.Post, error) {
	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if archived && ownerID != viewerID {
		return nil, ErrNotPostOwner
	}
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer != nil && viewer.Blocks(ownerID) {
		return nil, ErrUserNotFound
	}
	return s.collectPosts(ctx, owner.Posts, viewer, func(p *models.Post) bool {
		return p.IsArchived == archived
	})
}

// ListSavedPosts returns the posts userID bookmarked, newest bookmark first.
// Bookmarks of deleted posts and of users in a block are skipped.
func (s *ContentService) ListSavedPosts(ctx context.Context, userID string) ([]models.Post, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.collectPosts(ctx, user.Bookmarks, user, func(p *models.Post) bool {
		return !p.IsArchived || p.CreatedBy == userID
	})
}

func (s *ContentService) collectPosts(ctx context.Context, ids []string, viewer *models.User, keep func(*models.Post) bool) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		post, err := s.store.GetPost(ctx, ids[i])
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if viewer != nil && viewer.Blocks(post.CreatedBy) {
			continue
		}
		if !keep(post) {
			continue
		}
		post.Comments = hideBlocked(post.Comments, viewer)
		posts = append(posts, *post)
	}
	return posts, nil
}

// ListSavedReels returns the reels userID saved, newest first. Entries for
// deleted reels are skipped.
func (s *ContentService) ListSavedReels(ctx context.Context, userID string) ([]models.Reel, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	reels := make([]models.Reel, 0, len(user.SavedReels))
	for i := len(user.SavedReels) - 1; i >= 0; i-- {
		reel, err := s.store.GetReel(ctx, user.SavedReels[i])
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if user.Blocks(reel.CreatedBy) {
			continue
		}
		reels = append(reels, *reel)
	}
	return reels, nil
}

// === Likes ===

// resolveTarget loads the post and checks the addressed node exists. It
// returns the owner of the node for notifications.
func (s *ContentService) resolveTarget(ctx context.Context, target models.LikeTarget) (*models.Post, string, error) {
	if target.PostID == "" || (target.ReplyID != "" && target.CommentID == "") {
		return nil, "", apperr.New(apperr.CodeInvalidArgument, "like target must name a post, comment or reply")
	}
	post, err := s.loadPost(ctx, target.PostID)
	if err != nil {
		return nil, "", err
	}
	switch target.Level() {
	case models.LevelComment:
		comment := post.FindComment(target.CommentID)
		if comment == nil {
			return nil, "", ErrCommentNotFound
		}
		return post, comment.UserID, nil
	case models.LevelReply:
		comment := post.FindComment(target.CommentID)
		if comment == nil {
			return nil, "", ErrCommentNotFound
		}
		reply := comment.FindReply(target.ReplyID)
		if reply == nil {
			return nil, "", ErrReplyNotFound
		}
		return post, reply.UserID, nil
	default:
		return post, post.CreatedBy, nil
	}
}

// missingTarget maps a storage miss to the sentinel for the target level.
func missingTarget(err error, target models.LikeTarget) error {
	switch target.Level() {
	case models.LevelReply:
		return notFound(err, ErrReplyNotFound)
	case models.LevelComment:
		return notFound(err, ErrCommentNotFound)
	default:
		return notFound(err, ErrPostNotFound)
	}
}

// Like adds userID to the target's likes. Liking twice is a no-op.
func (s *ContentService) Like(ctx context.Context, target models.LikeTarget, userID string) (result *LikeResult, err error) {
	ctx, span := startSpan(ctx, "ContentService.Like",
		attribute.String("post_id", target.PostID),
		attribute.String("level", target.Level().String()),
		attribute.String("actor_id", userID))
	defer func() { endSpan(span, err) }()

	actor, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, ownerID, err := s.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	if actor.Blocks(post.CreatedBy) || actor.Blocks(ownerID) {
		return nil, ErrBlocked
	}

	count, added, err := s.store.AddLike(ctx, target, models.Like{UserID: userID, LikedAt: s.now().UTC()})
	if err != nil {
		return nil, missingTarget(err, target)
	}
	if added {
		s.notifier.emit(ctx, models.Notification{
			RecipientID: ownerID,
			SenderID:    userID,
			Type:        models.NotificationLike,
			PostID:      target.PostID,
			CommentID:   target.CommentID,
		})
	}
	return &LikeResult{Level: target.Level().String(), Target: target.TargetID(), Count: count, Changed: added}, nil
}

// Unlike removes userID from the target's likes. Unliking twice is a no-op.
func (s *ContentService) Unlike(ctx context.Context, target models.LikeTarget, userID string) (result *LikeResult, err error) {
	ctx, span := startSpan(ctx, "ContentService.Unlike",
		attribute.String("post_id", target.PostID),
		attribute.String("level", target.Level().String()),
		attribute.String("actor_id", userID))
	defer func() { endSpan(span, err) }()

	if _, _, err := s.resolveTarget(ctx, target); err != nil {
		return nil, err
	}
	count, removed, err := s.store.RemoveLike(ctx, target, userID)
	if err != nil {
		return nil, missingTarget(err, target)
	}
	return &LikeResult{Level: target.Level().String(), Target: target.TargetID(), Count: count, Changed: removed}, nil
}

// === Comments & Replies ===

// cleanText trims text and applies the length and filter rules.
func (s *ContentService) cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxTextLength {
		return "", ErrInvalidText
	}
	if s.filter != nil {
		if ok, reason := s.filter.Check(text); !ok {
			return "", &ContentRejectedError{Reason: reason}
		}
	}
	return text, nil
}

// AddComment appends a comment and returns the post's full comment sequence.
func (s *ContentService) AddComment(ctx context.Context, postID, userID, text string) (comments []models.Comment, err error) {
	ctx, span := startSpan(ctx, "ContentService.AddComment",
		attribute.String("post_id", postID), attribute.String("actor_id", userID))
	defer func() { endSpan(span, err) }()

	text, err = s.cleanText(text)
	if err != nil {
		return nil, err
	}
	actor, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if actor.Blocks(post.CreatedBy) {
		return nil, ErrBlocked
	}

	comment := models.Comment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Text:        text,
		CommentedAt: s.now().UTC(),
		Likes:       []models.Like{},
		Replies:     []models.Reply{},
	}
	comments, err = s.store.AppendComment(ctx, postID, comment)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	comments = hideBlocked(comments, actor)

	slog.InfoContext(ctx, "comment added",
		"actor_id", userID, "post_id", postID, "comment_id", comment.ID, "action", "add_comment")
	s.notifier.emit(ctx, models.Notification{
		RecipientID: post.CreatedBy,
		SenderID:    userID,
		Type:        models.NotificationComment,
		PostID:      postID,
		CommentID:   comment.ID,
		CommentText: text,
	})
	return comments, nil
}

// AddReply appends a reply to a comment and returns the updated comment.
func (s *ContentService) AddReply(ctx context.Context, postID, commentID, userID, text string) (comment *models.Comment, err error) {
	ctx, span := startSpan(ctx, "ContentService.AddReply",
		attribute.String("post_id", postID),
		attribute.String("comment_id", commentID),
		attribute.String("actor_id", userID))
	defer func() { endSpan(span, err) }()

	text, err = s.cleanText(text)
	if err != nil {
		return nil, err
	}
	actor, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	parent := post.FindComment(commentID)
	if parent == nil {
		return nil, ErrCommentNotFound
	}
	if actor.Blocks(post.CreatedBy) || actor.Blocks(parent.UserID) {
		return nil, ErrBlocked
	}

	reply := models.Reply{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		RepliedAt: s.now().UTC(),
		Likes:     []models.Like{},
	}
	comment, err = s.store.AppendReply(ctx, postID, commentID, reply)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	if visible := hideBlocked([]models.Comment{*comment}, actor); len(visible) == 1 {
		comment = &visible[0]
	}

	slog.InfoContext(ctx, "reply added",
		"actor_id", userID, "post_id", postID, "comment_id", commentID, "action", "add_reply")
	s.notifier.emit(ctx, models.Notification{
		RecipientID: parent.UserID,
		SenderID:    userID,
		Type:        models.NotificationReply,
		PostID:      postID,
		CommentID:   commentID,
		CommentText: text,
	})
	return comment, nil
}

// DeleteComment removes a comment with its replies and likes. The comment
// author and the post owner may delete it.
func (s *ContentService) DeleteComment(ctx context.Context, postID, commentID, requesterID string) (err error) {
	ctx, span := startSpan(ctx, "ContentService.DeleteComment",
		attribute.String("post_id", postID),
		attribute.String("comment_id", commentID),
		attribute.String("actor_id", requesterID))
	defer func() { endSpan(span, err) }()

	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return ErrCommentNotFound
	}
	if requesterID != comment.UserID && requesterID != post.CreatedBy {
		return ErrNotCommentAuthor
	}
	if err := s.store.RemoveComment(ctx, postID, commentID); err != nil {
		return notFound(err, ErrCommentNotFound)
	}
	slog.InfoContext(ctx, "comment deleted",
		"actor_id", requesterID, "post_id", postID, "comment_id", commentID,
		"replies", len(comment.Replies), "action", "delete_comment")
	return nil
}

// DeleteReply removes one reply. The reply author and the post owner may
// delete it.
func (s *ContentService) DeleteReply(ctx context.Context, postID, commentID, replyID, requesterID string) (err error) {
	ctx, span := startSpan(ctx, "ContentService.DeleteReply",
		attribute.String("post_id", postID),
		attribute.String("comment_id", commentID),
		attribute.String("actor_id", requesterID))
	defer func() { endSpan(span, err) }()

	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return ErrCommentNotFound
	}
	reply := comment.FindReply(replyID)
	if reply == nil {
		return ErrReplyNotFound
	}
	if requesterID != reply.UserID && requesterID != post.CreatedBy {
		return ErrNotReplyAuthor
	}
	if err := s.store.RemoveReply(ctx, postID, commentID, replyID); err != nil {
		return notFound(err, ErrReplyNotFound)
	}
	slog.InfoContext(ctx, "reply deleted",
		"actor_id", requesterID, "post_id", postID, "comment_id", commentID, "reply_id", replyID, "action", "delete_reply")
	return nil
}

// === Reels & Stories ===

func (s *ContentService) CreateReel(ctx context.Context, ownerID, title, videoRef string) (*models.Reel, error) {
	if strings.TrimSpace(videoRef) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "video reference is required")
	}
	if _, err := s.activeUser(ctx, ownerID); err != nil {
		return nil, err
	}
	reel := &models.Reel{
		ID:        uuid.NewString(),
		CreatedBy: ownerID,
		Title:     strings.TrimSpace(title),
		VideoRef:  videoRef,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateReel(ctx, reel); err != nil {
		return nil, err
	}
	return reel, nil
}

func (s *ContentService) CreateStory(ctx context.Context, ownerID, mediaRef, caption string) (*models.Story, error) {
	if strings.TrimSpace(mediaRef) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "media reference is required")
	}
	if _, err := s.activeUser(ctx, ownerID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	story := &models.Story{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		MediaRef:  mediaRef,
		Caption:   strings.TrimSpace(caption),
		CreatedAt: now,
		ExpiresAt: now.Add(storyLifetime),
	}
	if err := s.store.CreateStory(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

// activeUser loads a user who may create or react to content.
func (s *ContentService) activeUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if user.IsBlockedGlobally {
		return nil, ErrUserSuspended
	}
	return user, nil
}
