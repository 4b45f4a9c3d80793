package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// commentRow flattens a Comment. Seq orders comments within a post.
type commentRow struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	PostID      string    `gorm:"type:uuid;not null;index"`
	UserID      string    `gorm:"type:uuid;not null"`
	Text        string    `gorm:"type:text;not null"`
	CommentedAt time.Time `gorm:"not null"`
	Seq         int64     `gorm:"autoIncrement;index"`
}

func (commentRow) TableName() string {
	return "comments"
}

type replyRow struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	PostID    string    `gorm:"type:uuid;not null;index"`
	CommentID string    `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"type:uuid;not null"`
	Text      string    `gorm:"type:text;not null"`
	RepliedAt time.Time `gorm:"not null"`
	Seq       int64     `gorm:"autoIncrement;index"`
}

func (replyRow) TableName() string {
	return "replies"
}

// likeRow is one like on a post, comment or reply. The unique index on
// (target_id, user_id) enforces one like per user per target.
type likeRow struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	PostID   string    `gorm:"type:uuid;not null;index"`
	TargetID string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_target_user,priority:1"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_target_user,priority:2"`
	Level    string    `gorm:"size:10;not null"`
	LikedAt  time.Time `gorm:"not null"`
}

func (likeRow) TableName() string {
	return "likes"
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(post).Error)
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		likes, err := loadLikes(tx, id)
		if err != nil {
			return err
		}
		post.Likes = likes[id]
		if post.Likes == nil {
			post.Likes = []models.Like{}
		}
		post.Comments, err = loadComments(tx, id, likes)
		return err
	}, readOnly)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&likeRow{}, &replyRow{}, &commentRow{}} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) SetArchived(ctx context.Context, postID string, archived bool) error {
	result := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Update("is_archived", archived)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Likes ===

// checkTarget verifies every node on the path to target exists.
func checkTarget(tx *gorm.DB, target models.LikeTarget) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", target.PostID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	if target.Level() == models.LevelPost {
		return nil
	}
	if err := tx.Model(&commentRow{}).
		Where("id = ? AND post_id = ?", target.CommentID, target.PostID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	if target.Level() == models.LevelComment {
		return nil
	}
	if err := tx.Model(&replyRow{}).
		Where("id = ? AND comment_id = ?", target.ReplyID, target.CommentID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func countLikes(tx *gorm.DB, targetID string) (int, error) {
	var count int64
	err := tx.Model(&likeRow{}).Where("target_id = ?", targetID).Count(&count).Error
	return int(count), err
}

func (s *Store) AddLike(ctx context.Context, target models.LikeTarget, like models.Like) (int, bool, error) {
	var count int
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTarget(tx, target); err != nil {
			return err
		}
		row := likeRow{
			PostID:   target.PostID,
			TargetID: target.TargetID(),
			UserID:   like.UserID,
			Level:    target.Level().String(),
			LikedAt:  like.LikedAt,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		added = result.RowsAffected > 0

		var err error
		count, err = countLikes(tx, target.TargetID())
		return err
	})
	return count, added, err
}

func (s *Store) RemoveLike(ctx context.Context, target models.LikeTarget, userID string) (int, bool, error) {
	var count int
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTarget(tx, target); err != nil {
			return err
		}
		result := tx.Where("target_id = ? AND user_id = ?", target.TargetID(), userID).Delete(&likeRow{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected > 0

		var err error
		count, err = countLikes(tx, target.TargetID())
		return err
	})
	return count, removed, err
}

// === Comments & Replies ===

func (s *Store) AppendComment(ctx context.Context, postID string, comment models.Comment) ([]models.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	var comments []models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on the post serialises appends so each sees a consistent tail.
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", postID).Error; err != nil {
			return translate(err)
		}
		row := commentRow{
			ID:          comment.ID,
			PostID:      postID,
			UserID:      comment.UserID,
			Text:        comment.Text,
			CommentedAt: comment.CommentedAt,
		}
		if err := tx.Omit("Seq").Create(&row).Error; err != nil {
			return translate(err)
		}
		likes, err := loadLikes(tx, postID)
		if err != nil {
			return err
		}
		comments, err = loadComments(tx, postID, likes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) AppendReply(ctx context.Context, postID, commentID string, reply models.Reply) (*models.Comment, error) {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	var out *models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent commentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&parent, "id = ? AND post_id = ?", commentID, postID).Error
		if err != nil {
			return translate(err)
		}
		row := replyRow{
			ID:        reply.ID,
			PostID:    postID,
			CommentID: commentID,
			UserID:    reply.UserID,
			Text:      reply.Text,
			RepliedAt: reply.RepliedAt,
		}
		if err := tx.Omit("Seq").Create(&row).Error; err != nil {
			return translate(err)
		}
		likes, err := loadLikes(tx, postID)
		if err != nil {
			return err
		}
		comments, err := loadComments(tx, postID, likes)
		if err != nil {
			return err
		}
		for i := range comments {
			if comments[i].ID == commentID {
				out = &comments[i]
				return nil
			}
		}
		return storage.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var replyIDs []string
		if err := tx.Model(&replyRow{}).Where("comment_id = ?", commentID).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		targets := append(replyIDs, commentID)
		if err := tx.Where("post_id = ? AND target_id IN ?", postID, targets).Delete(&likeRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", commentID).Delete(&replyRow{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND post_id = ?", commentID, postID).Delete(&commentRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) RemoveReply(ctx context.Context, postID, commentID, replyID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ? AND target_id = ?", postID, replyID).Delete(&likeRow{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND comment_id = ? AND post_id = ?", replyID, commentID, postID).Delete(&replyRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// loadLikes returns every like under a post grouped by target id.
func loadLikes(tx *gorm.DB, postID string) (map[string][]models.Like, error) {
	var rows []likeRow
	if err := tx.Where("post_id = ?", postID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	likes := make(map[string][]models.Like, len(rows))
	for _, row := range rows {
		likes[row.TargetID] = append(likes[row.TargetID], models.Like{UserID: row.UserID, LikedAt: row.LikedAt})
	}
	return likes, nil
}

// loadComments rebuilds the ordered comment tree of a post.
func loadComments(tx *gorm.DB, postID string, likes map[string][]models.Like) ([]models.Comment, error) {
	var commentRows []commentRow
	if err := tx.Where("post_id = ?", postID).Order("seq ASC").Find(&commentRows).Error; err != nil {
		return nil, err
	}
	var replyRows []replyRow
	if err := tx.Where("post_id = ?", postID).Order("seq ASC").Find(&replyRows).Error; err != nil {
		return nil, err
	}

	replies := make(map[string][]models.Reply)
	for _, r := range replyRows {
		replies[r.CommentID] = append(replies[r.CommentID], models.Reply{
			ID:        r.ID,
			UserID:    r.UserID,
			Text:      r.Text,
			RepliedAt: r.RepliedAt,
			Likes:     orEmpty(likes[r.ID]),
		})
	}

	comments := make([]models.Comment, 0, len(commentRows))
	for _, c := range commentRows {
		rs := replies[c.ID]
		if rs == nil {
			rs = []models.Reply{}
		}
		comments = append(comments, models.Comment{
			ID:          c.ID,
			UserID:      c.UserID,
			Text:        c.Text,
			CommentedAt: c.CommentedAt,
			Likes:       orEmpty(likes[c.ID]),
			Replies:     rs,
		})
	}
	return comments, nil
}

func orEmpty(likes []models.Like) []models.Like {
	if likes == nil {
		return []models.Like{}
	}
	return likes
}

// === Reels & Stories ===

func (s *Store) CreateReel(ctx context.Context, reel *models.Reel) error {
	if reel.ID == "" {
		reel.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(reel).Error)
}

func (s *Store) GetReel(ctx context.Context, id string) (*models.Reel, error) {
	var reel models.Reel
	if err := s.db.WithContext(ctx).First(&reel, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reel, nil
}

func (s *Store) DeleteReel(ctx context.Context, id string) error {
	return deleteByID(s.db.WithContext(ctx), &models.Reel{}, id)
}

func (s *Store) CreateStory(ctx context.Context, story *models.Story) error {
	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(story).Error)
}

func (s *Store) DeleteStory(ctx context.Context, id string) error {
	return deleteByID(s.db.WithContext(ctx), &models.Story{}, id)
}

func deleteByID(db *gorm.DB, model interface{}, id string) error {
	result := db.Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// readOnly is passed to Transaction for snapshot reads.
var readOnly = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}
