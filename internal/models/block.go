package models

import "time"

// Block is the admin suspension record mirroring User.IsBlockedGlobally.
// Peer blocks live in the users' blockedUsers/blockedBy sets instead.
type Block struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex" json:"user_id" bson:"userId"`
	BlockedAt time.Time `gorm:"not null" json:"blocked_at" bson:"blockedAt"`
}

func (Block) TableName() string {
	return "blocks"
}
