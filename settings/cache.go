package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"eventpass-backend/models"
)

type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	status  models.PublicStatus
	expires time.Time
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(context.Context) (models.PublicStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expires.IsZero() || !c.now().Before(c.expires) {
		return models.PublicStatus{}, false
	}
	return c.status, true
}

func (c *MemoryCache) Set(_ context.Context, status models.PublicStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.expires = c.now().Add(c.ttl)
}

func (c *MemoryCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = time.Time{}
}

const redisKey = "eventpass:public_status"

// RedisCache shares the status between instances. Redis errors count as a
// miss, so a broken cache only costs a database read.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, log: logger}
}

func (c *RedisCache) Get(ctx context.Context) (models.PublicStatus, bool) {
	var status models.PublicStatus
	raw, err := c.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("redis get failed")
		}
		return status, false
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		c.log.Warn().Err(err).Msg("bad cached status")
		return status, false
	}
	return status, true
}

func (c *RedisCache) Set(ctx context.Context, status models.PublicStatus) {
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis set failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, redisKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis del failed")
	}
}
