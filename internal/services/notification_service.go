package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

var notificationMessages = map[models.NotificationType]string{
	models.NotificationLike:          "liked your content",
	models.NotificationComment:       "commented on your post",
	models.NotificationReply:         "replied to your comment",
	models.NotificationFollow:        "started following you",
	models.NotificationFollowRequest: "requested to follow you",
}

// NotificationService is the only writer of notifications and of the
// per-user unread counter.
type NotificationService struct {
	store storage.Store
	now   func() time.Time
}

func NewNotificationService(store storage.Store) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

// Notify stores n for its recipient. Self-notifications are dropped.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) (err error) {
	if n.RecipientID == "" || n.RecipientID == n.SenderID {
		return nil
	}
	ctx, span := startSpan(ctx, "NotificationService.Notify",
		attribute.String("recipient_id", n.RecipientID),
		attribute.String("type", string(n.Type)),
	)
	defer func() { endSpan(span, err) }()

	n.ID = uuid.NewString()
	n.IsRead = false
	n.CreatedAt = s.now().UTC()
	if n.Message == "" {
		n.Message = notificationMessages[n.Type]
	}
	return notFound(s.store.InsertNotification(ctx, &n), ErrUserNotFound)
}

// emit notifies after a mutation has already committed. A failure here must
// not undo or fail that mutation, so it is only logged.
func (s *NotificationService) emit(ctx context.Context, n models.Notification) {
	if err := s.Notify(ctx, n); err != nil {
		slog.ErrorContext(ctx, "notification fanout failed",
			"action", "notify",
			"type", string(n.Type),
			"actor_id", n.SenderID,
			"recipient_id", n.RecipientID,
			"error", err.Error(),
		)
	}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

// UnreadCount returns the maintained counter for userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, notFound(err, ErrUserNotFound)
	}
	return user.UnreadNotifications, nil
}

// MarkAllRead flips every unread notification and zeroes the counter. It
// returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (n int64, err error) {
	ctx, span := startSpan(ctx, "NotificationService.MarkAllRead", attribute.String("user_id", userID))
	defer func() { endSpan(span, err) }()

	n, err = s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, notFound(err, ErrUserNotFound)
	}
	slog.InfoContext(ctx, "notifications marked read", "actor_id", userID, "count", n)
	return n, nil
}
