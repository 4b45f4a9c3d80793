package dto

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	IsPrivate bool   `json:"is_private"`
}

type PrivacyRequest struct {
	IsPrivate *bool `json:"is_private" validate:"required"`
}

type CreatePostRequest struct {
	Caption  string `json:"caption" validate:"max=2200"`
	MediaRef string `json:"media_ref" validate:"omitempty,max=1024"`
}

// TextRequest is the body for comments and replies.
type TextRequest struct {
	Text string `json:"text" validate:"required,notblank,max=2000"`
}

type CreateReelRequest struct {
	Title    string `json:"title" validate:"max=255"`
	VideoRef string `json:"video_ref" validate:"required,max=1024"`
}

type CreateStoryRequest struct {
	MediaRef string `json:"media_ref" validate:"required,max=1024"`
	Caption  string `json:"caption" validate:"max=280"`
}

type ContentDeletedResponse struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// ProfileResponse is the view of a user returned to anyone but the user.
type ProfileResponse struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	IsPrivate      bool     `json:"is_private"`
	FollowerCount  int      `json:"follower_count"`
	FollowingCount int      `json:"following_count"`
	Posts          []string `json:"posts"`
}
