package handlers

import (
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	moderation *services.ModerationService
}

func NewAdminHandler(moderation *services.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

func (h *AdminHandler) BlockUser(c *fiber.Ctx) error {
	userID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	block, err := h.moderation.AdminBlock(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(block)
}

func (h *AdminHandler) UnblockUser(c *fiber.Ctx) error {
	userID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	if err := h.moderation.AdminUnblock(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "User unblocked successfully"})
}

func (h *AdminHandler) BlockStatus(c *fiber.Ctx) error {
	userID, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}
	status, err := h.moderation.BlockStatus(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *AdminHandler) ListBlocked(c *fiber.Ctx) error {
	blocks, err := h.moderation.ListBlocked(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"blocks": blocks, "count": len(blocks)})
}

// DeleteContent removes a post, reel or story selected by the :type segment.
func (h *AdminHandler) DeleteContent(c *fiber.Ctx) error {
	kind, err := services.ParseContentKind(c.Params("type"))
	if err != nil {
		return respondError(c, err)
	}
	id, err := idParam(c, "id", false)
	if err != nil {
		return done(err)
	}

	if err := h.moderation.DeleteContent(c.UserContext(), kind, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ContentDeletedResponse{Type: kind.String(), ID: id, Deleted: true})
}
