package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Anvoria/blogly/internal/cache"
	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/database"
	"github.com/Anvoria/blogly/internal/domain/auth"
	"github.com/Anvoria/blogly/internal/domain/grant"
	"github.com/Anvoria/blogly/internal/migrations"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Start initializes logging, connects to the database and Redis, runs migrations, loads the
// identity keys, registers routes and serves until SIGINT/SIGTERM. The expired-grant sweeper
// runs alongside the listener and stops with it.
func Start(cfg *config.Config, env *config.Environment) error {
	initLogger(cfg.Logging.Level)
	slog.Info("Environment loaded", "environment", env.Environment.String())

	if err := database.ConnectDB(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	defer database.Close()
	slog.Info("Database connected successfully")

	connectCache(&cfg.Redis)
	defer cache.CloseRedis()

	if err := migrations.RunMigrations(cfg); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}
	slog.Info("Migrations completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keyStore, err := loadKeyStore(ctx, &cfg.Auth)
	if err != nil {
		slog.Error("Failed to load identity keys", "error", err)
		return err
	}

	app := NewApp(cfg)
	routes := SetupRoutes(app, cfg, env, Deps{
		DB:       database.DB,
		Redis:    cache.RedisClient,
		KeyStore: keyStore,
	})

	addr := cfg.Server.Address()
	slog.Info("Server starting",
		"address", addr,
		"app", cfg.App.Name,
		"version", cfg.App.Version,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return grant.NewSweeper(routes.Ledger, cfg.Comments.SweepInterval()).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}
	return nil
}

// NewApp builds the Fiber app with the error envelope and the shared middleware stack
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ErrorHandler: errorHandler,
	})

	app.Use(helmet.New())

	if cfg.Server.RateLimit.Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.RateLimit.Max,
			Expiration: time.Duration(cfg.Server.RateLimit.Expiration) * time.Second,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return utils.ErrorResponse(c, utils.ErrTooManyRequest)
			},
		}))
	}

	if len(cfg.Server.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
			AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: true,
			ExposeHeaders:    "Content-Length",
			MaxAge:           3600,
		}))
	}

	app.Use(requestTimeout(cfg.Server.RequestTimeout()))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var apiErr *utils.APIError
	if errors.As(err, &apiErr) {
		return utils.ErrorResponse(c, apiErr)
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		return utils.ErrorResponse(c, utils.NewAPIError("HTTP_ERROR", e.Message, e.Code))
	}

	slog.Error("Unhandled request error", "path", c.Path(), "error", err)
	return utils.ErrorResponse(c, utils.ErrInternalServer)
}

// requestTimeout bounds every storage call made while serving a request.
// Handlers pass c.UserContext() down, so an expired deadline surfaces as a 500.
func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// connectCache connects the admin cache. An unreachable server only costs the cache:
// cache.RedisClient stays nil and admin lookups read the database.
func connectCache(cfg *config.RedisConfig) {
	if err := cache.ConnectRedis(cfg); err != nil {
		slog.Warn("Redis unavailable, continuing without the admin cache", "address", cfg.Address(), "error", err)
	}
}

// loadKeyStore fetches the identity provider's JWKS when configured, otherwise reads local PEM keys
func loadKeyStore(ctx context.Context, cfg *config.AuthConfig) (*auth.KeyStore, error) {
	if cfg.JWKSURL != "" {
		ks, err := auth.FetchKeys(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		slog.Info("Identity keys fetched", "jwks_url", cfg.JWKSURL, "keys", ks.JWKS().Len())
		return ks, nil
	}

	ks, err := auth.LoadKeys(cfg.KeysPath, cfg.ActiveKID)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}
	slog.Info("Identity keys loaded", "path", cfg.KeysPath, "keys", ks.JWKS().Len())
	return ks, nil
}

func initLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
