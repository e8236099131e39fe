package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache connects to the Redis named by TEST_REDIS_ADDR. Tests
// are skipped when no Redis is reachable so the rest of the suite stays
// runnable.
func setupTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("test redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, logger), client
}

func testKey() string {
	return "payments:test:" + uuid.NewString()
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	type entry struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	key := testKey()
	require.NoError(t, c.SetJSON(ctx, key, entry{Name: "abc", Count: 3}, time.Minute))

	var got entry
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, entry{Name: "abc", Count: 3}, got)
}

func TestCacheMissingKeyIsAMiss(t *testing.T) {
	c, _ := setupTestCache(t)

	var got []string
	hit, err := c.GetJSON(context.Background(), testKey(), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	c, client := setupTestCache(t)
	ctx := context.Background()

	key := testKey()
	require.NoError(t, client.Set(ctx, key, "{not json", time.Minute).Err())

	// A value that no longer decodes must read as a miss, so callers
	// fall back to their source of truth instead of serving it.
	var got []string
	hit, err := c.GetJSON(ctx, key, &got)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestCacheDelete(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	key := testKey()
	require.NoError(t, c.SetJSON(ctx, key, []string{"x"}, time.Minute))

	c.Delete(ctx, key)

	var got []string
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var got []string
	hit, err := c.GetJSON(ctx, "any", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, c.SetJSON(ctx, "any", got, time.Minute))
	c.Delete(ctx, "any")
}
