package models

import "time"

type NotificationType string

const (
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
	NotificationFollow        NotificationType = "follow"
	NotificationFollowRequest NotificationType = "follow_request"
	NotificationReply         NotificationType = "reply"
)

// Notification is append-only; only IsRead ever changes after insert.
type Notification struct {
	ID              string           `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	RecipientID     string           `gorm:"type:uuid;not null;index:idx_notifications_recipient_read,priority:1" json:"recipient_id" bson:"recipient"`
	SenderID        string           `gorm:"type:uuid;not null" json:"sender_id" bson:"sender"`
	Type            NotificationType `gorm:"size:30;not null" json:"type" bson:"type"`
	Message         string           `gorm:"size:255" json:"message" bson:"message"`
	PostID          string           `gorm:"size:36" json:"post_id,omitempty" bson:"post,omitempty"`
	CommentID       string           `gorm:"size:36" json:"comment_id,omitempty" bson:"commentId,omitempty"`
	CommentText     string           `gorm:"type:text" json:"comment_text,omitempty" bson:"commentText,omitempty"`
	FollowRequestID string           `gorm:"size:36" json:"follow_request_id,omitempty" bson:"followRequestId,omitempty"`
	IsRead          bool             `gorm:"default:false;index:idx_notifications_recipient_read,priority:2" json:"is_read" bson:"isRead"`
	CreatedAt       time.Time        `gorm:"index" json:"created_at" bson:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
