package handlers

import (
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type RelationshipHandler struct {
	relationships *services.RelationshipService
}

func NewRelationshipHandler(relationships *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships}
}

// CreateUser registers the caller's profile under the token subject.
func (h *RelationshipHandler) CreateUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	user, err := h.relationships.CreateUser(c.UserContext(), userID, req.Username, req.IsPrivate)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser returns the full document to its owner and a profile to others.
// Users in a peer block with the caller read as not found.
func (h *RelationshipHandler) GetUser(c *fiber.Ctx) error {
	callerID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	id, err := idParam(c, "id", true)
	if err != nil {
		return done(err)
	}

	user, err := h.relationships.ViewUser(c.UserContext(), id, callerID)
	if err != nil {
		return respondError(c, err)
	}
	if user.ID == callerID {
		return c.JSON(user)
	}
	return c.JSON(dto.ProfileResponse{
		ID:             user.ID,
		Username:       user.Username,
		IsPrivate:      user.IsPrivate,
		FollowerCount:  len(user.Followers),
		FollowingCount: len(user.Following),
		Posts:          user.Posts,
	})
}

func (h *RelationshipHandler) SetPrivacy(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	var req dto.PrivacyRequest
	if err := parseBody(c, &req); err != nil {
		return done(err)
	}

	user, err := h.relationships.SetPrivacy(c.UserContext(), userID, *req.IsPrivate)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *RelationshipHandler) Follow(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	targetID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	result, err := h.relationships.Follow(c.UserContext(), actorID, targetID)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if result.Status == services.FollowStatusRequested {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(result)
}

func (h *RelationshipHandler) Unfollow(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	targetID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	if err := h.relationships.Unfollow(c.UserContext(), actorID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Unfollowed"})
}

func (h *RelationshipHandler) Block(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	targetID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	if err := h.relationships.Block(c.UserContext(), actorID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "User blocked successfully"})
}

func (h *RelationshipHandler) Unblock(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	targetID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	if err := h.relationships.Unblock(c.UserContext(), actorID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "User unblocked successfully"})
}

func (h *RelationshipHandler) ListFollowers(c *fiber.Ctx) error {
	id, err := idParam(c, "id", true)
	if err != nil {
		return done(err)
	}
	ids, err := h.relationships.ListFollowers(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.IDListResponse{IDs: ids, Count: len(ids)})
}

func (h *RelationshipHandler) ListFollowing(c *fiber.Ctx) error {
	id, err := idParam(c, "id", true)
	if err != nil {
		return done(err)
	}
	ids, err := h.relationships.ListFollowing(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.IDListResponse{IDs: ids, Count: len(ids)})
}

func (h *RelationshipHandler) BlockList(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	list, err := h.relationships.BlockList(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ListFollowRequests lists requests addressed to the caller, filtered by the
// optional status query.
func (h *RelationshipHandler) ListFollowRequests(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	requests, err := h.relationships.ListFollowRequests(c.UserContext(), userID, c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "count": len(requests)})
}

func (h *RelationshipHandler) AcceptFollowRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	requestID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	req, err := h.relationships.AcceptFollowRequest(c.UserContext(), requestID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

func (h *RelationshipHandler) RejectFollowRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	requestID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	req, err := h.relationships.RejectFollowRequest(c.UserContext(), requestID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}
