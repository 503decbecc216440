package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const linkCacheKeyPrefix = "link:"

// LinkCache caches code -> target URL for the redirect path. Entries are
// advisory: the store stays authoritative for existence and clicks.
type LinkCache interface {
	GetTarget(ctx context.Context, code string) (string, bool, error)
	SetTarget(ctx context.Context, code, targetURL string) error
	Invalidate(ctx context.Context, code string) error
}

type redisLinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLinkCache returns a LinkCache backed by Redis string keys.
func NewRedisLinkCache(client *redis.Client, ttl time.Duration) LinkCache {
	return &redisLinkCache{client: client, ttl: ttl}
}

func (c *redisLinkCache) GetTarget(ctx context.Context, code string) (string, bool, error) {
	target, err := c.client.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return target, true, nil
}

func (c *redisLinkCache) SetTarget(ctx context.Context, code, targetURL string) error {
	return c.client.Set(ctx, cacheKey(code), targetURL, c.ttl).Err()
}

func (c *redisLinkCache) Invalidate(ctx context.Context, code string) error {
	return c.client.Del(ctx, cacheKey(code)).Err()
}

func cacheKey(code string) string {
	return linkCacheKeyPrefix + code
}
