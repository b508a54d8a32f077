package cache

import (
	"context"
	"testing"
	"time"

	"chatapi/domain/entities"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Minute, nil)

	_, ok := c.Get(ctx, "u1")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, &entities.User{ID: "u1", Email: "a@b.co", Role: entities.RoleAdmin, PasswordHash: "secret"}))
	got, ok := c.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, entities.RoleAdmin, got.Role)
	assert.Empty(t, got.PasswordHash)

	raw, err := mr.Get("chatapi:user:u1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok, "entry expires with the ttl")

	require.NoError(t, c.Set(ctx, &entities.User{ID: "u1"}))
	require.NoError(t, c.Invalidate(ctx, "u1"))
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestRedisCacheTreatsOutageAsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Minute, nil)
	mr.Close()

	_, ok := c.Get(context.Background(), "u1")
	assert.False(t, ok)
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	user := &entities.User{ID: "u1", Name: "Ada"}
	require.NoError(t, c.Set(ctx, user))
	user.Name = "changed"

	got, ok := c.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Name, "cache keeps its own copy")

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, user))
	require.NoError(t, c.Invalidate(ctx, "u1"))
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)
}
