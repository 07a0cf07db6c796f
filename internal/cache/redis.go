package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Anvoria/blogly/internal/config"
	"github.com/redis/go-redis/v9"
)

var (
	// RedisClient is the global Redis client instance. It stays nil when Redis is not configured.
	RedisClient *redis.Client
)

const pingTimeout = 5 * time.Second

// ConnectRedis sets RedisClient from cfg and pings the server.
// An empty host leaves Redis disabled and is not an error.
func ConnectRedis(cfg *config.RedisConfig) error {
	if !cfg.Enabled() {
		slog.Info("Redis not configured, admin lookups go straight to the database")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	slog.Info("Redis connected successfully", "address", cfg.Address())
	return nil
}

// CloseRedis closes RedisClient if it is set
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
