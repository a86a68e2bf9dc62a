package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
)

const keyPrefix = "shoplist:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr and pings it before returning.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.Ping, addr-%s: %w", addr, err)
	}
	logger.Infof(ctx, "connected to redis at %s", addr)

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return constants.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis.Get, key-%s: %w", key, err)
	}

	return sonic.Unmarshal(data, dst)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis.Set, key-%s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis.Del, key-%s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
