package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_Get(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	c := domain.NewCart("user123")
	c.AddLine("p1", "", 2, 50)
	c.AddLine("p2", "v1", 3, 10)

	data, _ := json.Marshal(c)
	require.NoError(t, mr.Set(cacheKey("user123"), string(data)))

	got, err := cache.Get(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", got.UserID)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "v1", got.Items[1].VariantID)
	assert.Equal(t, 130.0, got.TotalAmount)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("user123"), "{not json"))

	_, err := cache.Get(context.Background(), "user123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_SetAppliesJitteredTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user123", domain.NewCart("user123")))

	ttl := mr.TTL(cacheKey("user123"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	mr.FastForward(21 * time.Minute)
	_, err := cache.Get(ctx, "user123")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user123", domain.NewCart("user123")))
	require.NoError(t, cache.Delete(ctx, "user123"))
	assert.False(t, mr.Exists(cacheKey("user123")))

	// deleting a missing key is fine
	require.NoError(t, cache.Delete(ctx, "user123"))
}

func TestRedisCache_ConnectionError(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "user123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
