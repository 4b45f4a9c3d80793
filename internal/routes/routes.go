package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups the route handlers Setup mounts.
type Handlers struct {
	Health        *handlers.HealthHandler
	Relationships *handlers.RelationshipHandler
	Content       *handlers.ContentHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, suspensions middleware.SuspensionChecker) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Admin: token header or admin user. Registered before the user groups so
	// token-only requests never hit the JWT check.
	admin := api.Group("/admin", middleware.AdminAuth(cfg), middleware.AdminRequired(cfg))
	admin.Post("/users/:id/block", h.Admin.BlockUser)
	admin.Delete("/users/:id/block", h.Admin.UnblockUser)
	admin.Get("/users/:id/block", h.Admin.BlockStatus)
	admin.Get("/blocks", h.Admin.ListBlocked)
	admin.Delete("/content/:type/:id", h.Admin.DeleteContent)

	protected := []fiber.Handler{middleware.JWTProtected(cfg), middleware.SuspendedGuard(suspensions)}

	// Users and relationships. /me routes precede /:id.
	users := api.Group("/users", protected...)
	users.Post("/", h.Relationships.CreateUser)
	users.Put("/me/privacy", h.Relationships.SetPrivacy)
	users.Get("/me/blocks", h.Relationships.BlockList)
	users.Get("/me/archived", h.Content.ListArchivedPosts)
	users.Get("/me/saved", h.Content.ListSavedPosts)
	users.Get("/me/saved-reels", h.Content.ListSavedReels)
	users.Get("/:id", h.Relationships.GetUser)
	users.Post("/:id/follow", h.Relationships.Follow)
	users.Delete("/:id/follow", h.Relationships.Unfollow)
	users.Post("/:id/block", h.Relationships.Block)
	users.Delete("/:id/block", h.Relationships.Unblock)
	users.Get("/:id/followers", h.Relationships.ListFollowers)
	users.Get("/:id/following", h.Relationships.ListFollowing)
	users.Get("/:id/posts", h.Content.ListPosts)

	requests := api.Group("/follow-requests", protected...)
	requests.Get("/", h.Relationships.ListFollowRequests)
	requests.Post("/:id/accept", h.Relationships.AcceptFollowRequest)
	requests.Post("/:id/reject", h.Relationships.RejectFollowRequest)

	// Content tree
	posts := api.Group("/posts", protected...)
	posts.Post("/", h.Content.CreatePost)
	posts.Get("/:id", h.Content.GetPost)
	posts.Delete("/:id", h.Content.DeletePost)
	posts.Post("/:id/like", h.Content.Like)
	posts.Delete("/:id/like", h.Content.Unlike)
	posts.Post("/:id/save", h.Content.SavePost)
	posts.Delete("/:id/save", h.Content.UnsavePost)
	posts.Post("/:id/archive", h.Content.ArchivePost)
	posts.Delete("/:id/archive", h.Content.UnarchivePost)
	posts.Post("/:id/comments", h.Content.AddComment)
	posts.Get("/:id/comments/:cid", h.Content.GetComment)
	posts.Delete("/:id/comments/:cid", h.Content.DeleteComment)
	posts.Post("/:id/comments/:cid/like", h.Content.Like)
	posts.Delete("/:id/comments/:cid/like", h.Content.Unlike)
	posts.Post("/:id/comments/:cid/replies", h.Content.AddReply)
	posts.Delete("/:id/comments/:cid/replies/:rid", h.Content.DeleteReply)
	posts.Post("/:id/comments/:cid/replies/:rid/like", h.Content.Like)
	posts.Delete("/:id/comments/:cid/replies/:rid/like", h.Content.Unlike)

	reels := api.Group("/reels", protected...)
	reels.Post("/", h.Content.CreateReel)
	reels.Post("/:id/save", h.Content.SaveReel)
	reels.Delete("/:id/save", h.Content.UnsaveReel)

	stories := api.Group("/stories", protected...)
	stories.Post("/", h.Content.CreateStory)

	// Notifications
	notifications := api.Group("/notifications", protected...)
	notifications.Get("/", h.Notifications.List)
	notifications.Get("/unread-count", h.Notifications.UnreadCount)
	notifications.Post("/read", h.Notifications.MarkAllRead)
}
