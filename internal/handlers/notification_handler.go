package handlers

import (
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	limit, offset := pagination(c)

	items, err := h.notifications.List(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"notifications": items,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	n, err := h.notifications.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CountResponse{Count: int64(n)})
}

// MarkAllRead flips every unread notification and resets the counter.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return done(err)
	}
	n, err := h.notifications.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CountResponse{Count: n})
}
