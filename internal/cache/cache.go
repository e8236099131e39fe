// Package cache provides a small JSON read-cache over Redis for the
// transaction query side. A nil *Cache disables caching, so callers never
// branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client for best-effort response caching.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Cache over the given client.
func New(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// BuyerTransactionsKey is the cache key for a buyer's transaction list.
func BuyerTransactionsKey(buyerID uuid.UUID) string {
	return fmt.Sprintf("payments:txns:buyer:%s", buyerID)
}

// GetJSON loads a key into dest, reporting whether a usable entry was
// present. A value that fails to decode is reported as a miss so callers
// fall back to their source of truth instead of serving the corrupt entry.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores a value under key with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Delete drops a key. Errors are logged and swallowed: invalidation is
// best-effort and a stale entry only lives until its TTL.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("failed to invalidate cache key", "key", key, "error", err)
	}
}
