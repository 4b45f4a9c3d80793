// Package mongostore implements storage.Store on MongoDB. Users and posts are
// single documents; every mutation is one conditional update so re-issuing it
// converges.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colUsers          = "users"
	colPosts          = "posts"
	colReels          = "reels"
	colStories        = "stories"
	colFollowRequests = "followRequests"
	colNotifications  = "notifications"
	colBlocks         = "blocks"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Store)(nil)

// Connect dials uri, pings the primary and returns a store bound to database.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the uniqueness and lookup indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colFollowRequests: {
			{
				Keys: bson.D{{Key: "requester", Value: 1}, {Key: "recipient", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("pending_pair").
					SetPartialFilterExpression(bson.M{"status": models.FollowRequestPending}),
			},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colBlocks: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, specs := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
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
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	// $addToSet and $pull need real arrays, never null.
	for _, set := range models.UserSets {
		if ids := user.Set(set); *ids == nil {
			*ids = []string{}
		}
	}
	_, err := s.col(colUsers).InsertOne(ctx, user)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.col(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) updateUser(ctx context.Context, id string, update bson.M) error {
	result, err := s.col(colUsers).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SetPrivacy(ctx context.Context, id string, isPrivate bool) error {
	return s.updateUser(ctx, id, bson.M{"$set": bson.M{"isPrivate": isPrivate, "updatedAt": time.Now().UTC()}})
}

func (s *Store) AddToSet(ctx context.Context, userID string, set models.UserSet, member string) error {
	return s.updateUser(ctx, userID, bson.M{"$addToSet": bson.M{string(set): member}})
}

func (s *Store) RemoveFromSet(ctx context.Context, userID string, set models.UserSet, member string) error {
	return s.updateUser(ctx, userID, bson.M{"$pull": bson.M{string(set): member}})
}

func (s *Store) RemoveFromAllSets(ctx context.Context, set models.UserSet, member string) (int64, error) {
	result, err := s.col(colUsers).UpdateMany(ctx,
		bson.M{string(set): member},
		bson.M{"$pull": bson.M{string(set): member}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (s *Store) SetGlobalBlock(ctx context.Context, userID string, blocked bool) error {
	return s.updateUser(ctx, userID, bson.M{"$set": bson.M{"isBlocked": blocked, "updatedAt": time.Now().UTC()}})
}

// === Follow Requests ===

func (s *Store) CreateFollowRequest(ctx context.Context, req *models.FollowRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	_, err := s.col(colFollowRequests).InsertOne(ctx, req)
	return translate(err)
}

func (s *Store) GetFollowRequest(ctx context.Context, id string) (*models.FollowRequest, error) {
	var req models.FollowRequest
	if err := s.col(colFollowRequests).FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Store) FindPendingFollowRequest(ctx context.Context, requesterID, recipientID string) (*models.FollowRequest, error) {
	var req models.FollowRequest
	filter := bson.M{"requester": requesterID, "recipient": recipientID, "status": models.FollowRequestPending}
	if err := s.col(colFollowRequests).FindOne(ctx, filter).Decode(&req); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Store) TransitionFollowRequest(ctx context.Context, id string, status models.FollowRequestStatus, at time.Time) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := s.col(colFollowRequests).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.FollowRequestPending},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := s.GetFollowRequest(ctx, id); err != nil {
			return nil, err
		}
		return nil, storage.ErrStateMismatch
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) RejectPendingBetween(ctx context.Context, a, b string, at time.Time) (int64, error) {
	result, err := s.col(colFollowRequests).UpdateMany(ctx,
		bson.M{
			"status": models.FollowRequestPending,
			"$or": bson.A{
				bson.M{"requester": a, "recipient": b},
				bson.M{"requester": b, "recipient": a},
			},
		},
		bson.M{"$set": bson.M{"status": models.FollowRequestRejected, "updatedAt": at}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (s *Store) ListFollowRequests(ctx context.Context, recipientID string, status models.FollowRequestStatus) ([]models.FollowRequest, error) {
	filter := bson.M{"recipient": recipientID}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.col(colFollowRequests).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	reqs := []models.FollowRequest{}
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// === Notifications ===

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, err := s.col(colNotifications).InsertOne(ctx, n); err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	err := s.updateUser(ctx, n.RecipientID, bson.M{"$inc": bson.M{"unreadNotifications": 1}})
	if err != nil {
		// Undo the insert so the counter never lags a stored unread row.
		_, _ = s.col(colNotifications).DeleteOne(ctx, bson.M{"_id": n.ID})
		return err
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return 0, err
	}
	result, err := s.col(colNotifications).UpdateMany(ctx,
		bson.M{"recipient": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return 0, err
	}
	if result.ModifiedCount == 0 {
		return 0, nil
	}
	// Each flipped document had exactly one increment; inserts that land
	// after the flip keep theirs.
	if err := s.updateUser(ctx, userID, bson.M{"$inc": bson.M{"unreadNotifications": -result.ModifiedCount}}); err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.col(colNotifications).Find(ctx, bson.M{"recipient": userID}, opts)
	if err != nil {
		return nil, err
	}
	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	return s.col(colNotifications).CountDocuments(ctx, bson.M{"recipient": userID, "isRead": false})
}

// === Admin Blocks ===

func (s *Store) PutBlock(ctx context.Context, block *models.Block) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	err := s.col(colBlocks).FindOneAndUpdate(ctx,
		bson.M{"userId": block.UserID},
		bson.M{"$setOnInsert": block},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(block)
	return translate(err)
}

func (s *Store) DeleteBlock(ctx context.Context, userID string) error {
	_, err := s.col(colBlocks).DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

func (s *Store) GetBlock(ctx context.Context, userID string) (*models.Block, error) {
	var block models.Block
	if err := s.col(colBlocks).FindOne(ctx, bson.M{"userId": userID}).Decode(&block); err != nil {
		return nil, translate(err)
	}
	return &block, nil
}

func (s *Store) ListBlocks(ctx context.Context) ([]models.Block, error) {
	cursor, err := s.col(colBlocks).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "blockedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	blocks := []models.Block{}
	if err := cursor.All(ctx, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}
