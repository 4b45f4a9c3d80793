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

// Follow outcomes.
const (
	FollowStatusFollowing = "following"
	FollowStatusRequested = "requested"
)

// FollowResult reports whether a follow formed an edge or opened a request.
type FollowResult struct {
	Status  string                `json:"status"`
	Request *models.FollowRequest `json:"request,omitempty"`
}

// BlockList is a user's peer block state in both directions.
type BlockList struct {
	BlockedUsers []string `json:"blocked_users"`
	BlockedBy    []string `json:"blocked_by"`
}

// RelationshipService maintains follow edges, follow requests and peer
// blocks. Every edge spans two user documents and is written one side at a
// time, so each operation is safe to re-issue after a partial failure.
type RelationshipService struct {
	store    storage.Store
	notifier *NotificationService
	now      func() time.Time
}

func NewRelationshipService(store storage.Store, notifier *NotificationService) *RelationshipService {
	return &RelationshipService{store: store, notifier: notifier, now: time.Now}
}

// === Users ===

// CreateUser registers a user. An empty id gets a generated one; the API
// layer passes the authenticated subject.
func (s *RelationshipService) CreateUser(ctx context.Context, id, username string, isPrivate bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return nil, ErrInvalidUser
	}
	if id == "" {
		id = uuid.NewString()
	}
	user := &models.User{
		ID:        id,
		Username:  username,
		IsPrivate: isPrivate,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	slog.InfoContext(ctx, "user created", "actor_id", user.ID, "action", "create_user")
	return s.store.GetUser(ctx, user.ID)
}

func (s *RelationshipService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// ViewUser returns id as viewerID sees it. Users in a peer block with the
// viewer read as not found.
func (s *RelationshipService) ViewUser(ctx context.Context, id, viewerID string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if id != viewerID && user.Blocks(viewerID) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetPrivacy toggles whether follows toward the user need approval. Pending
// requests are left as they are.
func (s *RelationshipService) SetPrivacy(ctx context.Context, userID string, isPrivate bool) (*models.User, error) {
	if err := s.store.SetPrivacy(ctx, userID, isPrivate); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.GetUser(ctx, userID)
}

// getPair loads both users of a relationship operation.
func (s *RelationshipService) getPair(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error) {
	actor, err := s.GetUser(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

// === Follow ===

// Follow makes actor follow target. A private target gets a pending request
// instead of an edge. Following an already-followed user repairs a half
// written edge and emits nothing. Suspended actors are refused.
func (s *RelationshipService) Follow(ctx context.Context, actorID, targetID string) (result *FollowResult, err error) {
	ctx, span := startSpan(ctx, "RelationshipService.Follow",
		attribute.String("actor_id", actorID), attribute.String("target_id", targetID))
	defer func() { endSpan(span, err) }()

	if actorID == targetID {
		return nil, ErrSelfFollow
	}
	actor, target, err := s.getPair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if actor.IsBlockedGlobally {
		return nil, ErrUserSuspended
	}
	if actor.Blocks(targetID) || target.Blocks(actorID) {
		return nil, ErrBlocked
	}

	if actor.Has(models.SetFollowing, targetID) || target.Has(models.SetFollowers, actorID) {
		if err := s.addEdge(ctx, actorID, targetID); err != nil {
			return nil, err
		}
		return &FollowResult{Status: FollowStatusFollowing}, nil
	}

	if target.IsPrivate {
		return s.requestFollow(ctx, actorID, targetID)
	}

	if err := s.addEdge(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user followed", "actor_id", actorID, "target_id", targetID, "action", "follow")
	s.notifier.emit(ctx, models.Notification{
		RecipientID: targetID,
		SenderID:    actorID,
		Type:        models.NotificationFollow,
	})
	return &FollowResult{Status: FollowStatusFollowing}, nil
}

func (s *RelationshipService) requestFollow(ctx context.Context, actorID, targetID string) (*FollowResult, error) {
	now := s.now().UTC()
	req := &models.FollowRequest{
		ID:          uuid.NewString(),
		RequesterID: actorID,
		RecipientID: targetID,
		Status:      models.FollowRequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateFollowRequest(ctx, req); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrFollowRequestExist
		}
		return nil, err
	}
	slog.InfoContext(ctx, "follow requested", "actor_id", actorID, "target_id", targetID, "action", "follow_request")
	s.notifier.emit(ctx, models.Notification{
		RecipientID:     targetID,
		SenderID:        actorID,
		Type:            models.NotificationFollowRequest,
		FollowRequestID: req.ID,
	})
	return &FollowResult{Status: FollowStatusRequested, Request: req}, nil
}

// Unfollow removes the edge from both sides. Missing edges are fine.
func (s *RelationshipService) Unfollow(ctx context.Context, actorID, targetID string) (err error) {
	ctx, span := startSpan(ctx, "RelationshipService.Unfollow",
		attribute.String("actor_id", actorID), attribute.String("target_id", targetID))
	defer func() { endSpan(span, err) }()

	if actorID == targetID {
		return ErrSelfFollow
	}
	if _, _, err := s.getPair(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := s.removeEdge(ctx, actorID, targetID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "user unfollowed", "actor_id", actorID, "target_id", targetID, "action", "unfollow")
	return nil
}

// addEdge writes follower→followee on both documents, follower side first.
func (s *RelationshipService) addEdge(ctx context.Context, followerID, followeeID string) error {
	if err := s.store.AddToSet(ctx, followerID, models.SetFollowing, followeeID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := s.store.AddToSet(ctx, followeeID, models.SetFollowers, followerID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return nil
}

func (s *RelationshipService) removeEdge(ctx context.Context, followerID, followeeID string) error {
	if err := s.store.RemoveFromSet(ctx, followerID, models.SetFollowing, followeeID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := s.store.RemoveFromSet(ctx, followeeID, models.SetFollowers, followerID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return nil
}

// === Follow Requests ===

// loadRequest fetches a request and checks it is pending and addressed to
// responderID.
func (s *RelationshipService) loadRequest(ctx context.Context, requestID, responderID string) (*models.FollowRequest, error) {
	req, err := s.store.GetFollowRequest(ctx, requestID)
	if err != nil {
		return nil, notFound(err, ErrFollowRequestNotFound)
	}
	if req.RecipientID != responderID {
		return nil, ErrNotRequestOwner
	}
	if req.Status.Terminal() {
		return nil, ErrRequestResolved
	}
	return req, nil
}

// AcceptFollowRequest forms the requested edge and closes the request. The
// edge is written before the status flips so a retry after a crash still
// finds the request pending and finishes the job.
func (s *RelationshipService) AcceptFollowRequest(ctx context.Context, requestID, responderID string) (accepted *models.FollowRequest, err error) {
	ctx, span := startSpan(ctx, "RelationshipService.AcceptFollowRequest",
		attribute.String("request_id", requestID), attribute.String("actor_id", responderID))
	defer func() { endSpan(span, err) }()

	req, err := s.loadRequest(ctx, requestID, responderID)
	if err != nil {
		return nil, err
	}
	responder, err := s.GetUser(ctx, responderID)
	if err != nil {
		return nil, err
	}
	if responder.IsBlockedGlobally {
		return nil, ErrUserSuspended
	}
	requester, err := s.GetUser(ctx, req.RequesterID)
	if err != nil {
		return nil, err
	}
	hadEdge := requester.Has(models.SetFollowing, req.RecipientID)

	if err := s.addEdge(ctx, req.RequesterID, req.RecipientID); err != nil {
		return nil, err
	}

	accepted, err = s.store.TransitionFollowRequest(ctx, requestID, models.FollowRequestAccepted, s.now().UTC())
	if err != nil {
		if !errors.Is(err, storage.ErrStateMismatch) {
			return nil, err
		}
		// Lost a race. Only a concurrent reject owns the outcome, in which
		// case the edge written above must go.
		if current, getErr := s.store.GetFollowRequest(ctx, requestID); getErr == nil &&
			current.Status == models.FollowRequestRejected && !hadEdge {
			if rmErr := s.removeEdge(ctx, req.RequesterID, req.RecipientID); rmErr != nil {
				slog.ErrorContext(ctx, "failed to compensate follow edge",
					"action", "accept_follow_request", "request_id", requestID, "error", rmErr.Error())
			}
		}
		return nil, ErrRequestResolved
	}

	slog.InfoContext(ctx, "follow request accepted",
		"actor_id", responderID, "target_id", req.RequesterID, "request_id", requestID, "action", "accept_follow_request")
	return accepted, nil
}

func (s *RelationshipService) RejectFollowRequest(ctx context.Context, requestID, responderID string) (rejected *models.FollowRequest, err error) {
	ctx, span := startSpan(ctx, "RelationshipService.RejectFollowRequest",
		attribute.String("request_id", requestID), attribute.String("actor_id", responderID))
	defer func() { endSpan(span, err) }()

	if _, err := s.loadRequest(ctx, requestID, responderID); err != nil {
		return nil, err
	}
	rejected, err = s.store.TransitionFollowRequest(ctx, requestID, models.FollowRequestRejected, s.now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrStateMismatch) {
			return nil, ErrRequestResolved
		}
		return nil, notFound(err, ErrFollowRequestNotFound)
	}
	slog.InfoContext(ctx, "follow request rejected",
		"actor_id", responderID, "request_id", requestID, "action", "reject_follow_request")
	return rejected, nil
}

// ListFollowRequests returns requests addressed to recipientID, newest first.
// An empty status returns every request.
func (s *RelationshipService) ListFollowRequests(ctx context.Context, recipientID, status string) ([]models.FollowRequest, error) {
	st := models.FollowRequestStatus(status)
	switch st {
	case "", models.FollowRequestPending, models.FollowRequestAccepted, models.FollowRequestRejected:
	default:
		return nil, apperr.New(apperr.CodeInvalidArgument, "status must be pending, accepted or rejected")
	}
	if _, err := s.GetUser(ctx, recipientID); err != nil {
		return nil, err
	}
	return s.store.ListFollowRequests(ctx, recipientID, st)
}

// === Peer Blocks ===

// Block records actor blocking target, drops follow edges in both
// directions and rejects pending requests between them.
func (s *RelationshipService) Block(ctx context.Context, actorID, targetID string) (err error) {
	ctx, span := startSpan(ctx, "RelationshipService.Block",
		attribute.String("actor_id", actorID), attribute.String("target_id", targetID))
	defer func() { endSpan(span, err) }()

	if actorID == targetID {
		return ErrSelfBlock
	}
	if _, _, err := s.getPair(ctx, actorID, targetID); err != nil {
		return err
	}

	// Block edges go first so that from here on follow is refused even if
	// the cleanup below is interrupted.
	if err := s.store.AddToSet(ctx, actorID, models.SetBlockedUsers, targetID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := s.store.AddToSet(ctx, targetID, models.SetBlockedBy, actorID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := s.removeEdge(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := s.removeEdge(ctx, targetID, actorID); err != nil {
		return err
	}
	rejected, err := s.store.RejectPendingBetween(ctx, actorID, targetID, s.now().UTC())
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "user blocked",
		"actor_id", actorID, "target_id", targetID, "rejected_requests", rejected, "action", "block")
	return nil
}

// Unblock removes the block edges only. Follow state is not restored.
func (s *RelationshipService) Unblock(ctx context.Context, actorID, targetID string) (err error) {
	ctx, span := startSpan(ctx, "RelationshipService.Unblock",
		attribute.String("actor_id", actorID), attribute.String("target_id", targetID))
	defer func() { endSpan(span, err) }()

	if actorID == targetID {
		return ErrSelfBlock
	}
	if _, _, err := s.getPair(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := s.store.RemoveFromSet(ctx, actorID, models.SetBlockedUsers, targetID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := s.store.RemoveFromSet(ctx, targetID, models.SetBlockedBy, actorID); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	slog.InfoContext(ctx, "user unblocked", "actor_id", actorID, "target_id", targetID, "action", "unblock")
	return nil
}

// === Queries ===

func (s *RelationshipService) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(user.Followers), nil
}

func (s *RelationshipService) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(user.Following), nil
}

func (s *RelationshipService) BlockList(ctx context.Context, userID string) (*BlockList, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BlockList{
		BlockedUsers: nonNil(user.BlockedUsers),
		BlockedBy:    nonNil(user.BlockedBy),
	}, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
