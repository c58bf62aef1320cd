package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	v1 "github.com/lotbajar/social/internal/api/v1"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/config"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/logger"
	storage "github.com/lotbajar/social/pkg/redis"
	"gorm.io/gorm"
)

func NewRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *gorm.DB, log *logger.Logger, rclient *storage.RedisClient) {
	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins:     cfg.Server.AllowedOrigins,
				AllowCredentials: true,
				AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestCompression,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        100,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
			},
		),
	)
	app.Use(log.Middleware())

	h := v1.New(cfg, db, rclient, log)
	opt := h.Auth

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := app.Group("/api/v1")

	// Session lifecycle. Register, activate, login and refresh are the only
	// unauthenticated writes.
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/activate", h.Activate)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", auth.Refresh(opt))
	authRoutes.Post("/logout", auth.Protected(opt), h.Logout)

	// Reading is open to everyone; signed-in viewers get their reactions
	// and block filtering applied.
	api.Get("/feed", auth.OptionalAuth(opt), h.Feed)
	api.Get("/posts/:slug", auth.OptionalAuth(opt), h.GetPost)
	api.Get("/posts/:id/comments", auth.OptionalAuth(opt), h.ListComments)
	api.Get("/reactions", auth.OptionalAuth(opt), h.ListReactions)
	api.Get("/users/:username", auth.OptionalAuth(opt), h.GetUser)
	api.Get("/users/:username/followers", auth.OptionalAuth(opt), h.ListFollowers)
	api.Get("/users/:username/following", auth.OptionalAuth(opt), h.ListFollowing)

	api.Get("/me", auth.Protected(opt), h.Me)
	api.Put("/me", auth.Protected(opt), h.UpdateMe)
	api.Get("/me/blocks", auth.Protected(opt), h.ListBlocked)
	api.Get("/me/invitations", auth.Protected(opt), h.ListMyInvitations)

	api.Post("/reactions", auth.Protected(opt), auth.CheckCapability(opt, models.CapReact), h.ToggleReaction)

	api.Post("/posts", auth.Protected(opt), auth.CheckCapability(opt, models.CapCreatePost), h.CreatePost)
	api.Put("/posts/:id", auth.Protected(opt), auth.CheckCapability(opt, models.CapEditOwnPost), h.UpdatePost)
	api.Delete("/posts/:id", auth.Protected(opt), auth.CheckCapability(opt, models.CapDeleteOwnPost), h.DeletePost)

	api.Post("/posts/:id/comments", auth.Protected(opt), auth.CheckCapability(opt, models.CapCreateComment), h.CreateComment)
	api.Put("/comments/:id", auth.Protected(opt), auth.CheckCapability(opt, models.CapEditOwnComment), h.UpdateComment)
	api.Delete("/comments/:id", auth.Protected(opt), auth.CheckCapability(opt, models.CapDeleteOwnComment), h.DeleteComment)

	api.Post("/users/:username/follow", auth.Protected(opt), auth.CheckCapability(opt, models.CapFollowUser), h.FollowUser)
	api.Delete("/users/:username/follow", auth.Protected(opt), auth.CheckCapability(opt, models.CapFollowUser), h.UnfollowUser)
	api.Put("/users/:username/block", auth.Protected(opt), auth.CheckCapability(opt, models.CapBlockUser), h.BlockUser)
	api.Delete("/users/:username/block", auth.Protected(opt), auth.CheckCapability(opt, models.CapBlockUser), h.UnblockUser)

	api.Post("/reports", auth.Protected(opt), auth.CheckCapability(opt, models.CapReportContent), h.CreateReport)
	moderation := api.Group("/moderation", auth.Protected(opt), auth.CheckCapability(opt, models.CapModerateContent))
	moderation.Get("/reports", h.ListReports)
	moderation.Put("/reports/:id", h.ResolveReport)

	api.Post("/invitations", auth.Protected(opt), auth.CheckCapability(opt, models.CapInviteUser), h.CreateInvitation)
	api.Get("/invitations", auth.Protected(opt), auth.CheckCapability(opt, models.CapAdminSite), h.ListInvitations)
	api.Delete("/invitations/:id", auth.Protected(opt), h.RevokeInvitation)

	api.Get("/notifications", auth.Protected(opt), h.ListNotifications)
	api.Put("/notifications/read", auth.Protected(opt), h.MarkNotificationsRead)

	admin := api.Group("/admin", auth.Protected(opt), auth.CheckCapability(opt, models.CapAdminSite))
	admin.Get("/users", h.ListUsers)
	admin.Put("/users/:id/role", h.SetUserRole)
	admin.Put("/users/:id/status", h.SetUserStatus)
	admin.Get("/stats", h.SiteStats)

	go func() {
		<-ctx.Done()
		rclient.Close(log)
		log.Close()
	}()
}
