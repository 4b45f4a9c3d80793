package models

import "time"

type FollowRequestStatus string

const (
	FollowRequestPending  FollowRequestStatus = "pending"
	FollowRequestAccepted FollowRequestStatus = "accepted"
	FollowRequestRejected FollowRequestStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s FollowRequestStatus) Terminal() bool {
	return s == FollowRequestAccepted || s == FollowRequestRejected
}

// FollowRequest gates a follow edge toward a private account. At most one
// pending request exists per (requester, recipient).
type FollowRequest struct {
	ID          string              `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	RequesterID string              `gorm:"type:uuid;not null;index;uniqueIndex:idx_follow_requests_pending,priority:1,where:status = 'pending'" json:"requester_id" bson:"requester"`
	RecipientID string              `gorm:"type:uuid;not null;index;uniqueIndex:idx_follow_requests_pending,priority:2" json:"recipient_id" bson:"recipient"`
	Status      FollowRequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status" bson:"status"`
	CreatedAt   time.Time           `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updatedAt"`
}

func (FollowRequest) TableName() string {
	return "follow_requests"
}
