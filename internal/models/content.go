package models

import "time"

// Like marks one user's like. At most one Like per user exists in any likes
// set; LikedAt is for display only.
type Like struct {
	UserID  string    `json:"user_id" bson:"user"`
	LikedAt time.Time `json:"liked_at" bson:"likedAt"`
}

// Reply is nested inside exactly one Comment.
type Reply struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user"`
	Text      string    `json:"text" bson:"text"`
	RepliedAt time.Time `json:"replied_at" bson:"repliedAt"`
	Likes     []Like    `json:"likes" bson:"likes"`
}

// Comment is nested inside exactly one Post and owns its replies.
type Comment struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user"`
	Text        string    `json:"text" bson:"text"`
	CommentedAt time.Time `json:"commented_at" bson:"commentedAt"`
	Likes       []Like    `json:"likes" bson:"likes"`
	Replies     []Reply   `json:"replies" bson:"replies"`
}

// FindReply returns the reply with id, or nil.
func (c *Comment) FindReply(id string) *Reply {
	for i := range c.Replies {
		if c.Replies[i].ID == id {
			return &c.Replies[i]
		}
	}
	return nil
}

// Post is the root of a content tree. Comments and replies keep insertion
// order.
type Post struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	CreatedBy  string    `gorm:"type:uuid;not null;index" json:"created_by" bson:"createdBy"`
	Caption    string    `gorm:"type:text" json:"caption" bson:"caption"`
	MediaRef   string    `gorm:"type:text" json:"media_ref" bson:"mediaRef"`
	IsArchived bool      `gorm:"default:false" json:"is_archived" bson:"isArchived"`
	CreatedAt  time.Time `json:"created_at" bson:"createdAt"`

	Likes    []Like    `gorm:"-" json:"likes" bson:"likes"`
	Comments []Comment `gorm:"-" json:"comments" bson:"comments"`
}

func (Post) TableName() string {
	return "posts"
}

// FindComment returns the comment with id, or nil.
func (p *Post) FindComment(id string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// LikesOf resolves the likes slice addressed by target. It reports false when
// the comment or reply on the path is missing.
func (p *Post) LikesOf(target LikeTarget) (*[]Like, bool) {
	if target.Level() == LevelPost {
		return &p.Likes, true
	}
	comment := p.FindComment(target.CommentID)
	if comment == nil {
		return nil, false
	}
	if target.Level() == LevelComment {
		return &comment.Likes, true
	}
	reply := comment.FindReply(target.ReplyID)
	if reply == nil {
		return nil, false
	}
	return &reply.Likes, true
}

// LikeLevel is the nesting depth a like applies to.
type LikeLevel int

const (
	LevelPost LikeLevel = iota
	LevelComment
	LevelReply
)

func (l LikeLevel) String() string {
	switch l {
	case LevelComment:
		return "comment"
	case LevelReply:
		return "reply"
	default:
		return "post"
	}
}

// LikeTarget addresses a likes set by (post[, comment[, reply]]).
type LikeTarget struct {
	PostID    string
	CommentID string
	ReplyID   string
}

func (t LikeTarget) Level() LikeLevel {
	switch {
	case t.ReplyID != "":
		return LevelReply
	case t.CommentID != "":
		return LevelComment
	default:
		return LevelPost
	}
}

// TargetID is the id of the deepest addressed node.
func (t LikeTarget) TargetID() string {
	switch t.Level() {
	case LevelReply:
		return t.ReplyID
	case LevelComment:
		return t.CommentID
	default:
		return t.PostID
	}
}

// Reel is a short video. It has no back-reference repaired on deletion.
type Reel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	CreatedBy string    `gorm:"type:uuid;not null;index" json:"created_by" bson:"createdBy"`
	Title     string    `gorm:"size:255" json:"title" bson:"title"`
	VideoRef  string    `gorm:"type:text;not null" json:"video_ref" bson:"videoRef"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

func (Reel) TableName() string {
	return "reels"
}

// Story is an expiring media item.
type Story struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id" bson:"userId"`
	MediaRef  string    `gorm:"type:text" json:"media_ref" bson:"mediaRef"`
	Caption   string    `gorm:"size:280" json:"caption" bson:"caption"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at" bson:"expiresAt"`
}

func (Story) TableName() string {
	return "stories"
}
