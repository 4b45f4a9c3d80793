package mongostore

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Likes == nil {
		post.Likes = []models.Like{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := s.col(colPosts).InsertOne(ctx, post)
	return translate(err)
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.col(colPosts).FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.deleteOne(ctx, colPosts, id)
}

func (s *Store) SetArchived(ctx context.Context, postID string, archived bool) error {
	result, err := s.col(colPosts).UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": bson.M{"isArchived": archived}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Likes ===

// likeUpdate builds the filter, update path and array filters addressing the
// likes array of target. Comment and reply levels use arrayFilters so one
// update touches exactly the addressed element.
func likeUpdate(target models.LikeTarget) (bson.M, string, []interface{}) {
	filter := bson.M{"_id": target.PostID}
	switch target.Level() {
	case models.LevelComment:
		return filter, "comments.$[c].likes", []interface{}{
			bson.M{"c._id": target.CommentID},
		}
	case models.LevelReply:
		return filter, "comments.$[c].replies.$[r].likes", []interface{}{
			bson.M{"c._id": target.CommentID},
			bson.M{"r._id": target.ReplyID},
		}
	default:
		return filter, "likes", nil
	}
}

// countAt reloads the post and returns the size of the target's likes.
func (s *Store) countAt(ctx context.Context, target models.LikeTarget) (int, error) {
	post, err := s.GetPost(ctx, target.PostID)
	if err != nil {
		return 0, err
	}
	likes, ok := post.LikesOf(target)
	if !ok {
		return 0, storage.ErrNotFound
	}
	return len(*likes), nil
}

func (s *Store) AddLike(ctx context.Context, target models.LikeTarget, like models.Like) (int, bool, error) {
	filter, path, arrayFilters := likeUpdate(target)
	// The $ne guard lives in the innermost array filter (or the document
	// filter at post level) so a duplicate push matches nothing.
	switch target.Level() {
	case models.LevelPost:
		filter["likes.user"] = bson.M{"$ne": like.UserID}
	case models.LevelComment:
		arrayFilters[0] = bson.M{"c._id": target.CommentID, "c.likes.user": bson.M{"$ne": like.UserID}}
	case models.LevelReply:
		arrayFilters[1] = bson.M{"r._id": target.ReplyID, "r.likes.user": bson.M{"$ne": like.UserID}}
	}

	opts := options.Update()
	if arrayFilters != nil {
		opts.SetArrayFilters(options.ArrayFilters{Filters: arrayFilters})
	}
	result, err := s.col(colPosts).UpdateOne(ctx, filter, bson.M{"$push": bson.M{path: like}}, opts)
	if err != nil {
		return 0, false, err
	}
	count, err := s.countAt(ctx, target)
	if err != nil {
		return 0, false, err
	}
	return count, result.ModifiedCount > 0, nil
}

func (s *Store) RemoveLike(ctx context.Context, target models.LikeTarget, userID string) (int, bool, error) {
	filter, path, arrayFilters := likeUpdate(target)
	opts := options.Update()
	if arrayFilters != nil {
		opts.SetArrayFilters(options.ArrayFilters{Filters: arrayFilters})
	}
	result, err := s.col(colPosts).UpdateOne(ctx, filter,
		bson.M{"$pull": bson.M{path: bson.M{"user": userID}}}, opts)
	if err != nil {
		return 0, false, err
	}
	count, err := s.countAt(ctx, target)
	if err != nil {
		return 0, false, err
	}
	return count, result.ModifiedCount > 0, nil
}

// === Comments & Replies ===

func (s *Store) AppendComment(ctx context.Context, postID string, comment models.Comment) ([]models.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.Likes == nil {
		comment.Likes = []models.Like{}
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}
	var post models.Post
	err := s.col(colPosts).FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": comment}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"comments": 1}),
	).Decode(&post)
	if err != nil {
		return nil, translate(err)
	}
	return post.Comments, nil
}

func (s *Store) AppendReply(ctx context.Context, postID, commentID string, reply models.Reply) (*models.Comment, error) {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.Likes == nil {
		reply.Likes = []models.Like{}
	}
	var post models.Post
	err := s.col(colPosts).FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{"$push": bson.M{"comments.$.replies": reply}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"comments": 1}),
	).Decode(&post)
	if err != nil {
		return nil, translate(err)
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil, storage.ErrNotFound
	}
	return comment, nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	result, err := s.col(colPosts).UpdateOne(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveReply(ctx context.Context, postID, commentID, replyID string) error {
	result, err := s.col(colPosts).UpdateOne(ctx,
		bson.M{
			"_id":      postID,
			"comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "replies._id": replyID}},
		},
		bson.M{"$pull": bson.M{"comments.$.replies": bson.M{"_id": replyID}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Reels & Stories ===

func (s *Store) CreateReel(ctx context.Context, reel *models.Reel) error {
	if reel.ID == "" {
		reel.ID = uuid.NewString()
	}
	_, err := s.col(colReels).InsertOne(ctx, reel)
	return translate(err)
}

func (s *Store) GetReel(ctx context.Context, id string) (*models.Reel, error) {
	var reel models.Reel
	if err := s.col(colReels).FindOne(ctx, bson.M{"_id": id}).Decode(&reel); err != nil {
		return nil, translate(err)
	}
	return &reel, nil
}

func (s *Store) DeleteReel(ctx context.Context, id string) error {
	return s.deleteOne(ctx, colReels, id)
}

func (s *Store) CreateStory(ctx context.Context, story *models.Story) error {
	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	_, err := s.col(colStories).InsertOne(ctx, story)
	return translate(err)
}

func (s *Store) DeleteStory(ctx context.Context, id string) error {
	return s.deleteOne(ctx, colStories, id)
}

func (s *Store) deleteOne(ctx context.Context, collection, id string) error {
	result, err := s.col(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
