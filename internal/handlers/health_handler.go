package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  pinger
	driver string
}

func NewHealthHandler(store pinger, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, storageStatus := "ok", "ok"
	code := fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status = "degraded"
		storageStatus = "unhealthy: " + err.Error()
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Storage:   storageStatus,
		Driver:    h.driver,
	})
}
