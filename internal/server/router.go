package server

import (
	"github.com/Anvoria/blogly/internal/cache"
	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/domain/admin"
	"github.com/Anvoria/blogly/internal/domain/auth"
	"github.com/Anvoria/blogly/internal/domain/comment"
	"github.com/Anvoria/blogly/internal/domain/grant"
	"github.com/Anvoria/blogly/internal/domain/post"
	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/Anvoria/blogly/internal/domain/view"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the connections the routes are built on. Redis may be nil.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	KeyStore *auth.KeyStore
}

// Routes exposes the long-lived services that run outside request handling
type Routes struct {
	Ledger grant.Ledger
}

// SetupRoutes builds repositories, services and handlers and mounts them on app.
//
// Public routes live under /api; the admin dashboard API under /api/admin requires a
// bearer token whose subject is in the admin registry.
func SetupRoutes(app *fiber.App, cfg *config.Config, env *config.Environment, deps Deps) *Routes {
	// Initialize repositories
	postRepo := post.NewRepository(deps.DB)
	commentRepo := comment.NewRepository(deps.DB)
	grantRepo := grant.NewRepository(deps.DB)
	viewRepo := view.NewRepository(deps.DB)
	adminRepo := admin.NewRepository(deps.DB)

	// Initialize services
	sessions := session.NewProvider(cfg.Comments.SessionTTL(), env.Environment.IsProduction())
	ledger := grant.NewLedger(grantRepo, cfg.Comments.DeletionWindow())
	adminService := admin.NewService(adminRepo, cache.NewAdminCache(deps.Redis))
	postService := post.NewService(postRepo, &cfg.App)
	commentService := comment.NewService(commentRepo, ledger, postService, adminService, cfg.Comments)
	viewService := view.NewService(viewRepo, postService, cfg.Analytics.ViewerSalt)

	sessionHandler := session.NewHandler(sessions)
	postHandler := post.NewHandler(postService)
	commentHandler := comment.NewHandler(commentService, sessions)
	viewHandler := view.NewHandler(viewService, sessions)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	api := app.Group("/api")
	api.Use(auth.Middleware(deps.KeyStore, cfg.Auth.Issuer, cfg.Auth.Audience))

	api.Get("/comments/session", sessionHandler.Session)
	api.Post("/comments/session", sessionHandler.Session)
	api.Delete("/comments/:id?", commentHandler.DeleteComment)

	api.Get("/posts", postHandler.ListPosts)
	api.Get("/posts/:slug", postHandler.GetPost)
	api.Get("/posts/:id/comments", commentHandler.ListComments)
	api.Post("/posts/:id/comments", commentHandler.CreateComment)
	api.Get("/posts/:id/views", viewHandler.ViewCount)
	api.Post("/posts/:id/views", viewHandler.RecordView)

	adminGroup := api.Group("/admin", auth.RequireAdmin(adminService))
	adminGroup.Get("/posts", postHandler.AdminListPosts)
	adminGroup.Post("/posts", postHandler.CreatePost)
	adminGroup.Put("/posts/:id", postHandler.UpdatePost)
	adminGroup.Delete("/posts/:id", postHandler.DeletePost)
	adminGroup.Get("/comments", commentHandler.ModerateComments)
	adminGroup.Get("/analytics/views", viewHandler.Analytics)

	return &Routes{Ledger: ledger}
}
