package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatapi/domain/entities"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how stale a cached role or email may be after a change
// made by another instance.
const DefaultTTL = 5 * time.Minute

// cachedUser keeps only what a principal needs; the password hash never
// leaves the store.
type cachedUser struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Role  entities.Role `json:"role"`
	Name  string        `json:"name,omitempty"`
}

// RedisCache shares resolved users between API instances.
type RedisCache struct {
	client *redisv9.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redisv9.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// Get treats every Redis failure as a miss; the caller falls back to the
// store.
func (c *RedisCache) Get(ctx context.Context, userID string) (*entities.User, bool) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis get user failed", zap.String("userID", userID), zap.Error(err))
		return nil, false
	}

	var cached cachedUser
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("unmarshal cached user failed", zap.String("userID", userID), zap.Error(err))
		return nil, false
	}
	return &entities.User{ID: cached.ID, Email: cached.Email, Role: cached.Role, Name: cached.Name}, true
}

func (c *RedisCache) Set(ctx context.Context, user *entities.User) error {
	payload, err := json.Marshal(cachedUser{ID: user.ID, Email: user.Email, Role: user.Role, Name: user.Name})
	if err != nil {
		return fmt.Errorf("marshal cached user failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(user.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete user failed: %w", err)
	}
	return nil
}

func (c *RedisCache) key(userID string) string {
	return "chatapi:user:" + userID
}
