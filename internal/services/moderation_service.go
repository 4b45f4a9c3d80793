package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ContentKind selects which kind of document an admin delete targets.
type ContentKind int

const (
	KindPost ContentKind = iota + 1
	KindReel
	KindStory
)

var contentKindNames = map[ContentKind]string{
	KindPost:  "posts",
	KindReel:  "reels",
	KindStory: "stories",
}

func (k ContentKind) String() string {
	if name, ok := contentKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseContentKind resolves the path segment used by the admin API.
func ParseContentKind(s string) (ContentKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range contentKindNames {
		if s == name {
			return kind, nil
		}
	}
	return 0, ErrUnknownContent
}

// BlockStatus is a user's admin suspension state.
type BlockStatus struct {
	UserID    string     `json:"user_id"`
	Blocked   bool       `json:"blocked"`
	BlockedAt *time.Time `json:"blocked_at,omitempty"`
}

// contentRemover deletes one kind of content and repairs whatever points at
// it.
type contentRemover func(ctx context.Context, id string) error

// ModerationService applies admin suspension and content removal. Admin
// blocks are separate from peer blocks and leave follow edges alone.
type ModerationService struct {
	store    storage.Store
	now      func() time.Time
	removers map[ContentKind]contentRemover
}

func NewModerationService(store storage.Store) *ModerationService {
	s := &ModerationService{store: store, now: time.Now}
	s.removers = map[ContentKind]contentRemover{
		KindPost:  s.removePost,
		KindReel:  s.removeReel,
		KindStory: s.removeStory,
	}
	return s
}

// AdminBlock suspends a user. The user flag is written before the record so
// enforcement starts even if the record write fails; re-issuing completes it.
func (s *ModerationService) AdminBlock(ctx context.Context, userID string) (block *models.Block, err error) {
	ctx, span := startSpan(ctx, "ModerationService.AdminBlock", attribute.String("target_id", userID))
	defer func() { endSpan(span, err) }()

	if err := s.store.SetGlobalBlock(ctx, userID, true); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	block = &models.Block{
		ID:        uuid.NewString(),
		UserID:    userID,
		BlockedAt: s.now().UTC(),
	}
	if err := s.store.PutBlock(ctx, block); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user suspended", "target_id", userID, "action", "admin_block")
	return block, nil
}

// AdminUnblock lifts a suspension. Unblocking an unblocked user succeeds.
func (s *ModerationService) AdminUnblock(ctx context.Context, userID string) (err error) {
	ctx, span := startSpan(ctx, "ModerationService.AdminUnblock", attribute.String("target_id", userID))
	defer func() { endSpan(span, err) }()

	if err := s.store.SetGlobalBlock(ctx, userID, false); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if err := s.store.DeleteBlock(ctx, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "user unsuspended", "target_id", userID, "action", "admin_unblock")
	return nil
}

func (s *ModerationService) BlockStatus(ctx context.Context, userID string) (*BlockStatus, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	status := &BlockStatus{UserID: userID, Blocked: user.IsBlockedGlobally}
	block, err := s.store.GetBlock(ctx, userID)
	switch {
	case err == nil:
		status.BlockedAt = &block.BlockedAt
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return status, nil
}

// IsSuspended reports the admin block flag. Unknown users are not suspended.
func (s *ModerationService) IsSuspended(ctx context.Context, userID string) (bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsBlockedGlobally, nil
}

func (s *ModerationService) ListBlocked(ctx context.Context) ([]models.Block, error) {
	return s.store.ListBlocks(ctx)
}

// DeleteContent removes the document of the given kind.
func (s *ModerationService) DeleteContent(ctx context.Context, kind ContentKind, id string) (err error) {
	ctx, span := startSpan(ctx, "ModerationService.DeleteContent",
		attribute.String("kind", kind.String()), attribute.String("content_id", id))
	defer func() { endSpan(span, err) }()

	remove, ok := s.removers[kind]
	if !ok {
		return ErrUnknownContent
	}
	if err := remove(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "content deleted by admin", "kind", kind.String(), "content_id", id, "action", "admin_delete")
	return nil
}

func (s *ModerationService) removePost(ctx context.Context, id string) error {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return notFound(err, ErrPostNotFound)
	}
	deleted, err := purgePost(ctx, s.store, post)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPostNotFound
	}
	return nil
}

func (s *ModerationService) removeReel(ctx context.Context, id string) error {
	return notFound(s.store.DeleteReel(ctx, id), ErrReelNotFound)
}

func (s *ModerationService) removeStory(ctx context.Context, id string) error {
	return notFound(s.store.DeleteStory(ctx, id), ErrStoryNotFound)
}
