package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ContentHandler struct {
	content *services.ContentService
}

func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// === Posts ===

func (h *ContentHandler) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	var req dto.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	post, err := h.content.CreatePost(c.UserContext(), userID, req.Caption, req.MediaRef)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *ContentHandler) GetPost(c *fiber.Ctx) error {
	viewerID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	post, err := h.content.GetPost(c.UserContext(), postID, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func (h *ContentHandler) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	result, err := h.content.DeletePost(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *ContentHandler) ArchivePost(c *fiber.Ctx) error {
	return h.setArchived(c, true)
}

func (h *ContentHandler) UnarchivePost(c *fiber.Ctx) error {
	return h.setArchived(c, false)
}

func (h *ContentHandler) setArchived(c *fiber.Ctx, archived bool) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	post, err := h.content.SetArchived(c.UserContext(), postID, userID, archived)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func (h *ContentHandler) SavePost(c *fiber.Ctx) error {
	return h.bookmark(c, h.content.SavePost, "Post saved")
}

func (h *ContentHandler) UnsavePost(c *fiber.Ctx) error {
	return h.bookmark(c, h.content.UnsavePost, "Post unsaved")
}

func (h *ContentHandler) SaveReel(c *fiber.Ctx) error {
	return h.bookmark(c, h.content.SaveReel, "Reel saved")
}

func (h *ContentHandler) UnsaveReel(c *fiber.Ctx) error {
	return h.bookmark(c, h.content.UnsaveReel, "Reel unsaved")
}

func (h *ContentHandler) bookmark(c *fiber.Ctx, op func(context.Context, string, string) error, msg string) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	id, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	if err := op(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// ListPosts lists a user's visible posts.
func (h *ContentHandler) ListPosts(c *fiber.Ctx) error {
	viewerID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	ownerID, err := idParam(c, "id", true)
	if err != nil {
		return done(err)
	}
	posts, err := h.content.ListPosts(c.UserContext(), ownerID, viewerID, false)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts, "count": len(posts)})
}

func (h *ContentHandler) ListArchivedPosts(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	posts, err := h.content.ListPosts(c.UserContext(), userID, userID, true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts, "count": len(posts)})
}

func (h *ContentHandler) ListSavedPosts(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	posts, err := h.content.ListSavedPosts(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts, "count": len(posts)})
}

func (h *ContentHandler) ListSavedReels(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	reels, err := h.content.ListSavedReels(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reels": reels, "count": len(reels)})
}

// === Likes ===

// likeTarget builds the target from whichever of :id, :cid and :rid the
// route declares.
func likeTarget(c *fiber.Ctx) (models.LikeTarget, error) {
	var target models.LikeTarget
	var err error
	if target.PostID, err = idParam(c, "id", false); err != nil {
		return target, err
	}
	if c.Params("cid") != "" {
		if target.CommentID, err = idParam(c, "cid", false); err != nil {
			return target, err
		}
	}
	if c.Params("rid") != "" {
		if target.ReplyID, err = idParam(c, "rid", false); err != nil {
			return target, err
		}
	}
	return target, nil
}

// Like serves post, comment and reply likes.
func (h *ContentHandler) Like(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	target, err := likeTarget(c)
	if err != nil {
		return done(err)
	}

	result, err := h.content.Like(c.UserContext(), target, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Unlike serves post, comment and reply unlikes.
func (h *ContentHandler) Unlike(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	target, err := likeTarget(c)
	if err != nil {
		return done(err)
	}

	result, err := h.content.Unlike(c.UserContext(), target, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// === Comments ===

func (h *ContentHandler) AddComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	var req dto.TextRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	comments, err := h.content.AddComment(c.UserContext(), postID, userID, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comments": comments})
}

func (h *ContentHandler) GetComment(c *fiber.Ctx) error {
	viewerID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	commentID, err := idParam(c, "cid", false)
	if err != nil {
		return done(err)
	}

	comment, err := h.content.GetComment(c.UserContext(), postID, commentID, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

func (h *ContentHandler) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	commentID, err := idParam(c, "cid", false)
	if err != nil {
		return done(err)
	}

	if err := h.content.DeleteComment(c.UserContext(), postID, commentID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Comment deleted"})
}

func (h *ContentHandler) AddReply(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	postID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	commentID, err := idParam(c, "cid", false)
	if err != nil {
		return done(err)
	}
	var req dto.TextRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	comment, err := h.content.AddReply(c.UserContext(), postID, commentID, userID, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *ContentHandler) DeleteReply(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	target, err := likeTarget(c)
	if err != nil {
		return done(err)
	}

	if err := h.content.DeleteReply(c.UserContext(), target.PostID, target.CommentID, target.ReplyID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Reply deleted"})
}

// === Reels and stories ===

func (h *ContentHandler) CreateReel(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	var req dto.CreateReelRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	reel, err := h.content.CreateReel(c.UserContext(), userID, req.Title, req.VideoRef)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reel)
}

func (h *ContentHandler) CreateStory(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	var req dto.CreateStoryRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	story, err := h.content.CreateStory(c.UserContext(), userID, req.MediaRef, req.Caption)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}
