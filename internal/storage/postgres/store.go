package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRef is one member of a user's id set (followers, bookmarks, ...).
// The surrogate id keeps insertion order for ordered sets like posts.
type userRef struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_refs_member,priority:1"`
	Kind      string    `gorm:"size:20;not null;uniqueIndex:idx_user_refs_member,priority:2;index:idx_user_refs_kind_ref,priority:1"`
	RefID     string    `gorm:"size:36;not null;uniqueIndex:idx_user_refs_member,priority:3;index:idx_user_refs_kind_ref,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

func (userRef) TableName() string {
	return "user_refs"
}

// Store implements storage.Store on PostgreSQL through GORM.
type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps an open connection. Call Models with database.MigrateModels
// before first use.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Models returns every table this store needs migrated.
func (s *Store) Models() []interface{} {
	return []interface{}{
		&models.User{},
		&userRef{},
		&models.Post{},
		&commentRow{},
		&replyRow{},
		&likeRow{},
		&models.Reel{},
		&models.Story{},
		&models.FollowRequest{},
		&models.Notification{},
		&models.Block{},
	}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps GORM errors onto the storage taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return storage.ErrConflict
	default:
		return err
	}
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}

	var refs []userRef
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).Order("id ASC").Find(&refs).Error; err != nil {
		return nil, fmt.Errorf("failed to load user sets: %w", err)
	}
	for _, ref := range refs {
		if ids := user.Set(models.UserSet(ref.Kind)); ids != nil {
			*ids = append(*ids, ref.RefID)
		}
	}
	return &user, nil
}

func (s *Store) SetPrivacy(ctx context.Context, id string, isPrivate bool) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_private", isPrivate)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) userExists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) AddToSet(ctx context.Context, userID string, set models.UserSet, member string) error {
	tx := s.db.WithContext(ctx)
	if err := s.userExists(tx, userID); err != nil {
		return err
	}
	ref := userRef{UserID: userID, Kind: string(set), RefID: member, CreatedAt: time.Now().UTC()}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ref).Error
}

func (s *Store) RemoveFromSet(ctx context.Context, userID string, set models.UserSet, member string) error {
	tx := s.db.WithContext(ctx)
	if err := s.userExists(tx, userID); err != nil {
		return err
	}
	return tx.Where("user_id = ? AND kind = ? AND ref_id = ?", userID, string(set), member).
		Delete(&userRef{}).Error
}

func (s *Store) RemoveFromAllSets(ctx context.Context, set models.UserSet, member string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("kind = ? AND ref_id = ?", string(set), member).
		Delete(&userRef{})
	return result.RowsAffected, result.Error
}

func (s *Store) SetGlobalBlock(ctx context.Context, userID string, blocked bool) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", blocked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Follow Requests ===

func (s *Store) CreateFollowRequest(ctx context.Context, req *models.FollowRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	// The partial unique index on pending pairs is the real guard; this only
	// turns the common case into a clean conflict.
	if _, err := s.FindPendingFollowRequest(ctx, req.RequesterID, req.RecipientID); err == nil {
		return storage.ErrConflict
	}
	return translate(s.db.WithContext(ctx).Create(req).Error)
}

func (s *Store) GetFollowRequest(ctx context.Context, id string) (*models.FollowRequest, error) {
	var req models.FollowRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Store) FindPendingFollowRequest(ctx context.Context, requesterID, recipientID string) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", requesterID, recipientID, models.FollowRequestPending).
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Store) TransitionFollowRequest(ctx context.Context, id string, status models.FollowRequestStatus, at time.Time) (*models.FollowRequest, error) {
	result := s.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("id = ? AND status = ?", id, models.FollowRequestPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetFollowRequest(ctx, id); err != nil {
			return nil, err
		}
		return nil, storage.ErrStateMismatch
	}
	return s.GetFollowRequest(ctx, id)
}

func (s *Store) RejectPendingBetween(ctx context.Context, a, b string, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("status = ?", models.FollowRequestPending).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)", a, b, b, a).
		Updates(map[string]interface{}{
			"status":     models.FollowRequestRejected,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (s *Store) ListFollowRequests(ctx context.Context, recipientID string, status models.FollowRequestStatus) ([]models.FollowRequest, error) {
	var reqs []models.FollowRequest
	query := s.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// === Notifications ===

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(n).Error; err != nil {
			return err
		}
		if n.IsRead {
			return nil
		}
		result := tx.Model(&models.User{}).Where("id = ?", n.RecipientID).
			Update("unread_notifications", gorm.Expr("unread_notifications + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	var flipped int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the user row so a concurrent insert cannot slip between the
		// flip and the counter reset.
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
			return translate(err)
		}
		result := tx.Model(&models.Notification{}).
			Where("recipient_id = ? AND is_read = ?", userID, false).
			Update("is_read", true)
		if result.Error != nil {
			return result.Error
		}
		flipped = result.RowsAffected
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("unread_notifications", 0).Error
	})
	return flipped, err
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.WithContext(ctx).Where("recipient_id = ?", userID).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// === Admin Blocks ===

func (s *Store) PutBlock(ctx context.Context, block *models.Block) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(block).Error
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).First(block, "user_id = ?", block.UserID).Error
}

func (s *Store) DeleteBlock(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Block{}).Error
}

func (s *Store) GetBlock(ctx context.Context, userID string) (*models.Block, error) {
	var block models.Block
	if err := s.db.WithContext(ctx).First(&block, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &block, nil
}

func (s *Store) ListBlocks(ctx context.Context) ([]models.Block, error) {
	var blocks []models.Block
	if err := s.db.WithContext(ctx).Order("blocked_at DESC").Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}
