package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ougirez/shoplist/internal/pkg/constants"
)

type cacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryCache keeps encoded values in process, the same way they would sit in redis.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex

	now func() time.Time
}

// NewMemoryCache starts a cleanup goroutine that lives until ctx is done.
func NewMemoryCache(ctx context.Context) *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]cacheItem),
		now:  time.Now,
	}

	go c.cleanupExpired(ctx, 10*time.Minute)

	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string, dst interface{}) error {
	c.mutex.RLock()
	item, ok := c.data[key]
	c.mutex.RUnlock()

	if !ok || c.now().After(item.expiration) {
		return constants.ErrCacheMiss
	}

	return sonic.Unmarshal(item.value, dst)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		value:      data,
		expiration: c.now().Add(ttl),
	}

	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

func (c *MemoryCache) cleanupExpired(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}
