package inmemory

import (
	"context"
	"slices"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
)

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if _, ok := s.posts[post.ID]; ok {
		return storage.ErrConflict
	}
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePost(post), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) SetArchived(ctx context.Context, postID string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	post.IsArchived = archived
	return nil
}

// === Likes ===

// likesOf resolves the likes slice addressed by target. Caller holds the lock.
func (s *Store) likesOf(target models.LikeTarget) (*[]models.Like, error) {
	post, ok := s.posts[target.PostID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	likes, ok := post.LikesOf(target)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return likes, nil
}

func (s *Store) AddLike(ctx context.Context, target models.LikeTarget, like models.Like) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := s.likesOf(target)
	if err != nil {
		return 0, false, err
	}
	if slices.ContainsFunc(*likes, func(l models.Like) bool { return l.UserID == like.UserID }) {
		return len(*likes), false, nil
	}
	*likes = append(*likes, like)
	return len(*likes), true, nil
}

func (s *Store) RemoveLike(ctx context.Context, target models.LikeTarget, userID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := s.likesOf(target)
	if err != nil {
		return 0, false, err
	}
	before := len(*likes)
	*likes = slices.DeleteFunc(*likes, func(l models.Like) bool { return l.UserID == userID })
	return len(*likes), len(*likes) != before, nil
}

// === Comments & Replies ===

func (s *Store) AppendComment(ctx context.Context, postID string, comment models.Comment) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	post.Comments = append(post.Comments, cloneComment(comment))
	return cloneComments(post.Comments), nil
}

func (s *Store) AppendReply(ctx context.Context, postID, commentID string, reply models.Reply) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil, storage.ErrNotFound
	}
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	reply.Likes = slices.Clone(reply.Likes)
	comment.Replies = append(comment.Replies, reply)
	out := cloneComment(*comment)
	return &out, nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	before := len(post.Comments)
	post.Comments = slices.DeleteFunc(post.Comments, func(c models.Comment) bool { return c.ID == commentID })
	if len(post.Comments) == before {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveReply(ctx context.Context, postID, commentID, replyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return storage.ErrNotFound
	}
	before := len(comment.Replies)
	comment.Replies = slices.DeleteFunc(comment.Replies, func(r models.Reply) bool { return r.ID == replyID })
	if len(comment.Replies) == before {
		return storage.ErrNotFound
	}
	return nil
}

// === Reels & Stories ===

func (s *Store) CreateReel(ctx context.Context, reel *models.Reel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reel.ID == "" {
		reel.ID = uuid.NewString()
	}
	stored := *reel
	s.reels[reel.ID] = &stored
	return nil
}

func (s *Store) GetReel(ctx context.Context, id string) (*models.Reel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reel, ok := s.reels[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *reel
	return &out, nil
}

func (s *Store) DeleteReel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reels[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.reels, id)
	return nil
}

func (s *Store) CreateStory(ctx context.Context, story *models.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	stored := *story
	s.stories[story.ID] = &stored
	return nil
}

func (s *Store) DeleteStory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.stories, id)
	return nil
}

func clonePost(p *models.Post) *models.Post {
	out := *p
	out.Likes = slices.Clone(p.Likes)
	out.Comments = cloneComments(p.Comments)
	return &out
}

func cloneComments(comments []models.Comment) []models.Comment {
	out := make([]models.Comment, len(comments))
	for i, c := range comments {
		out[i] = cloneComment(c)
	}
	return out
}

func cloneComment(c models.Comment) models.Comment {
	c.Likes = slices.Clone(c.Likes)
	replies := make([]models.Reply, len(c.Replies))
	for i, r := range c.Replies {
		r.Likes = slices.Clone(r.Likes)
		replies[i] = r
	}
	c.Replies = replies
	return c
}
