package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache 基于 go-cache 的进程内缓存实现
type LocalCache struct {
	store             *gocache.Cache
	defaultExpiration time.Duration
}

// NewLocalCache 创建本地缓存实例
func NewLocalCache(config LocalConfig) *LocalCache {
	defaultExpiration := config.DefaultExpiration
	if defaultExpiration <= 0 {
		defaultExpiration = 5 * time.Minute
	}
	cleanupInterval := config.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	return &LocalCache{
		store:             gocache.New(defaultExpiration, cleanupInterval),
		defaultExpiration: defaultExpiration,
	}
}

// Get 获取缓存值
func (c *LocalCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set 设置缓存值
func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = c.defaultExpiration
	}
	c.store.Set(key, value, expiration)
	return nil
}

// Delete 删除缓存键
func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Exists 检查键是否存在
func (c *LocalCache) Exists(ctx context.Context, key string) bool {
	_, ok := c.store.Get(key)
	return ok
}

// Expire 重置键的过期时间，键不存在时不做任何操作
func (c *LocalCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if value, ok := c.store.Get(key); ok {
		if expiration <= 0 {
			expiration = c.defaultExpiration
		}
		c.store.Set(key, value, expiration)
	}
	return nil
}

// Clear 清空缓存
func (c *LocalCache) Clear(ctx context.Context) error {
	c.store.Flush()
	return nil
}

// Close 关闭缓存（本地缓存无需释放连接）
func (c *LocalCache) Close() error {
	return nil
}
