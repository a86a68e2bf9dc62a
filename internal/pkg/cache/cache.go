package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores JSON-encoded values. Get decodes into dst and returns
// constants.ErrCacheMiss for absent or expired keys.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func New(ctx context.Context, kind, redisAddr string) (Cache, error) {
	switch kind {
	case "", "memory":
		return NewMemoryCache(ctx), nil
	case "redis":
		return NewRedisCache(ctx, redisAddr)
	default:
		return nil, fmt.Errorf("unknown cache type %q", kind)
	}
}
