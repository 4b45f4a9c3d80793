package models

import (
	"slices"
	"time"
)

// UserSet names one of the id sets a user document carries. The value is also
// the document field name and the postgres ref kind.
type UserSet string

const (
	SetFollowers    UserSet = "followers"
	SetFollowing    UserSet = "following"
	SetBlockedUsers UserSet = "blockedUsers"
	SetBlockedBy    UserSet = "blockedBy"
	SetPosts        UserSet = "posts"
	SetBookmarks    UserSet = "bookmarks"
	SetSavedReels   UserSet = "savedReels"
)

// UserSets lists every set in a stable order.
var UserSets = []UserSet{
	SetFollowers, SetFollowing, SetBlockedUsers, SetBlockedBy,
	SetPosts, SetBookmarks, SetSavedReels,
}

// User is the per-user relationship document. The id slices are owned by the
// relationship and content services; UnreadNotifications is owned by the
// notification service.
type User struct {
	ID                  string    `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	Username            string    `gorm:"size:50;not null;uniqueIndex" json:"username" bson:"username"`
	IsPrivate           bool      `gorm:"default:false" json:"is_private" bson:"isPrivate"`
	IsBlockedGlobally   bool      `gorm:"column:is_blocked;default:false;index" json:"is_blocked" bson:"isBlocked"`
	UnreadNotifications int       `gorm:"default:0" json:"unread_notifications" bson:"unreadNotifications"`
	CreatedAt           time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updatedAt"`

	Followers    []string `gorm:"-" json:"followers" bson:"followers"`
	Following    []string `gorm:"-" json:"following" bson:"following"`
	BlockedUsers []string `gorm:"-" json:"blocked_users" bson:"blockedUsers"`
	BlockedBy    []string `gorm:"-" json:"blocked_by" bson:"blockedBy"`
	Posts        []string `gorm:"-" json:"posts" bson:"posts"`
	Bookmarks    []string `gorm:"-" json:"bookmarks" bson:"bookmarks"`
	SavedReels   []string `gorm:"-" json:"saved_reels" bson:"savedReels"`
}

func (User) TableName() string {
	return "users"
}

// Set returns a pointer to the slice backing set.
func (u *User) Set(set UserSet) *[]string {
	switch set {
	case SetFollowers:
		return &u.Followers
	case SetFollowing:
		return &u.Following
	case SetBlockedUsers:
		return &u.BlockedUsers
	case SetBlockedBy:
		return &u.BlockedBy
	case SetPosts:
		return &u.Posts
	case SetBookmarks:
		return &u.Bookmarks
	case SetSavedReels:
		return &u.SavedReels
	}
	return nil
}

// Has reports whether id is a member of set.
func (u *User) Has(set UserSet, id string) bool {
	s := u.Set(set)
	return s != nil && slices.Contains(*s, id)
}

// Blocks reports whether a peer block exists between u and other in either
// direction.
func (u *User) Blocks(other string) bool {
	return u.Has(SetBlockedUsers, other) || u.Has(SetBlockedBy, other)
}
