package middleware

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// SuspensionChecker reports whether an admin has blocked a user.
type SuspensionChecker interface {
	IsSuspended(ctx context.Context, userID string) (bool, error)
}

// SuspendedGuard rejects writes from admin-blocked users with 403. Reads
// pass so a suspended user can still see their own data.
func SuspendedGuard(checker SuspensionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		userID, err := authctx.GetUserID(c)
		if err != nil {
			return c.Next()
		}
		suspended, err := checker.IsSuspended(c.UserContext(), userID)
		if err != nil {
			slog.ErrorContext(c.UserContext(), "suspension check failed", "error", err, "user_id", userID)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if suspended {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Account suspended",
			})
		}
		return c.Next()
	}
}
