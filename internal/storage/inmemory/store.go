package inmemory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/google/uuid"
)

// Store implements storage.Store in memory. Posts form an arena: each post
// exclusively owns its comment and reply values.
type Store struct {
	mu             sync.RWMutex
	users          map[string]*models.User
	usernames      map[string]string // username -> user id
	posts          map[string]*models.Post
	reels          map[string]*models.Reel
	stories        map[string]*models.Story
	followRequests map[string]*models.FollowRequest
	notifications  map[string][]*models.Notification // recipient -> oldest first
	blocks         map[string]*models.Block          // user id -> record
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:          make(map[string]*models.User),
		usernames:      make(map[string]string),
		posts:          make(map[string]*models.Post),
		reels:          make(map[string]*models.Reel),
		stories:        make(map[string]*models.Story),
		followRequests: make(map[string]*models.FollowRequest),
		notifications:  make(map[string][]*models.Notification),
		blocks:         make(map[string]*models.Block),
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := s.users[user.ID]; ok {
		return storage.ErrConflict
	}
	if _, ok := s.usernames[user.Username]; ok {
		return storage.ErrConflict
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := cloneUser(user)
	s.users[stored.ID] = stored
	s.usernames[stored.Username] = stored.ID
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Store) SetPrivacy(ctx context.Context, id string, isPrivate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.IsPrivate = isPrivate
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AddToSet(ctx context.Context, userID string, set models.UserSet, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	ids := user.Set(set)
	if !slices.Contains(*ids, member) {
		*ids = append(*ids, member)
	}
	return nil
}

func (s *Store) RemoveFromSet(ctx context.Context, userID string, set models.UserSet, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	ids := user.Set(set)
	*ids = slices.DeleteFunc(*ids, func(id string) bool { return id == member })
	return nil
}

func (s *Store) RemoveFromAllSets(ctx context.Context, set models.UserSet, member string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, user := range s.users {
		ids := user.Set(set)
		before := len(*ids)
		*ids = slices.DeleteFunc(*ids, func(id string) bool { return id == member })
		if len(*ids) != before {
			changed++
		}
	}
	return changed, nil
}

func (s *Store) SetGlobalBlock(ctx context.Context, userID string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	user.IsBlockedGlobally = blocked
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// === Follow Requests ===

func (s *Store) CreateFollowRequest(ctx context.Context, req *models.FollowRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.followRequests {
		if existing.Status == models.FollowRequestPending &&
			existing.RequesterID == req.RequesterID &&
			existing.RecipientID == req.RecipientID {
			return storage.ErrConflict
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	stored := *req
	s.followRequests[stored.ID] = &stored
	return nil
}

func (s *Store) GetFollowRequest(ctx context.Context, id string) (*models.FollowRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.followRequests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (s *Store) FindPendingFollowRequest(ctx context.Context, requesterID, recipientID string) (*models.FollowRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.followRequests {
		if req.Status == models.FollowRequestPending &&
			req.RequesterID == requesterID && req.RecipientID == recipientID {
			out := *req
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) TransitionFollowRequest(ctx context.Context, id string, status models.FollowRequestStatus, at time.Time) (*models.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.followRequests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if req.Status != models.FollowRequestPending {
		return nil, storage.ErrStateMismatch
	}
	req.Status = status
	req.UpdatedAt = at
	out := *req
	return &out, nil
}

func (s *Store) RejectPendingBetween(ctx context.Context, a, b string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, req := range s.followRequests {
		if req.Status != models.FollowRequestPending {
			continue
		}
		if (req.RequesterID == a && req.RecipientID == b) || (req.RequesterID == b && req.RecipientID == a) {
			req.Status = models.FollowRequestRejected
			req.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *Store) ListFollowRequests(ctx context.Context, recipientID string, status models.FollowRequestStatus) ([]models.FollowRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.FollowRequest, 0)
	for _, req := range s.followRequests {
		if req.RecipientID != recipientID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		result = append(result, *req)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// === Notifications ===

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipient, ok := s.users[n.RecipientID]
	if !ok {
		return storage.ErrNotFound
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	stored := *n
	s.notifications[n.RecipientID] = append(s.notifications[n.RecipientID], &stored)
	if !stored.IsRead {
		recipient.UnreadNotifications++
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	var n int64
	for _, notification := range s.notifications[userID] {
		if !notification.IsRead {
			notification.IsRead = true
			n++
		}
	}
	user.UnreadNotifications = 0
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.notifications[userID]
	result := make([]models.Notification, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, *all[i])
	}
	if offset >= len(result) {
		return []models.Notification{}, nil
	}
	end := len(result)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return result[offset:end], nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, notification := range s.notifications[userID] {
		if !notification.IsRead {
			n++
		}
	}
	return n, nil
}

// === Admin Blocks ===

func (s *Store) PutBlock(ctx context.Context, block *models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.blocks[block.UserID]; ok {
		*block = *existing
		return nil
	}
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	stored := *block
	s.blocks[block.UserID] = &stored
	return nil
}

func (s *Store) DeleteBlock(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blocks, userID)
	return nil
}

func (s *Store) GetBlock(ctx context.Context, userID string) (*models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.blocks[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *block
	return &out, nil
}

func (s *Store) ListBlocks(ctx context.Context) ([]models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockedAt.After(result[j].BlockedAt)
	})
	return result, nil
}

func cloneUser(u *models.User) *models.User {
	out := *u
	for _, set := range models.UserSets {
		*out.Set(set) = slices.Clone(*u.Set(set))
	}
	return &out
}
