package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// AdminCachePrefix is the prefix for admin flag cache keys
	AdminCachePrefix = "admin:user:"
	// AdminCacheTTL is the time-to-live for cached admin flags
	AdminCacheTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when a key is not cached
var ErrCacheMiss = errors.New("cache miss")

// AdminCache caches "is this user an admin" answers in Redis.
// A nil client turns every lookup into a miss and every write into a no-op.
type AdminCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAdminCache creates an AdminCache on client
func NewAdminCache(client *redis.Client) *AdminCache {
	return &AdminCache{client: client, ttl: AdminCacheTTL}
}

func adminKey(userID string) string {
	return AdminCachePrefix + userID
}

// Get returns the cached flag for userID, or ErrCacheMiss
func (c *AdminCache) Get(ctx context.Context, userID string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrCacheMiss
	}

	val, err := c.client.Get(ctx, adminKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, ErrCacheMiss
	}
	if err != nil {
		return false, fmt.Errorf("failed to read admin cache: %w", err)
	}

	slog.Debug("Admin cache hit", "user_id", userID)
	return val == "1", nil
}

// Set stores the flag for userID
func (c *AdminCache) Set(ctx context.Context, userID string, isAdmin bool) error {
	if c == nil || c.client == nil {
		return nil
	}

	val := "0"
	if isAdmin {
		val = "1"
	}
	return c.client.Set(ctx, adminKey(userID), val, c.ttl).Err()
}

// Invalidate removes the cached flag for userID
func (c *AdminCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, adminKey(userID)).Err()
}
