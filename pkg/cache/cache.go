package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache 统一缓存接口，屏蔽本地缓存和Redis的差异
type Cache interface {
	// Get 获取缓存值，第二个返回值表示键是否存在
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set 设置缓存值，expiration 为 0 时使用默认过期时间
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete 删除缓存键
	Delete(ctx context.Context, key string) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key string) bool

	// Expire 重置键的过期时间
	Expire(ctx context.Context, key string, expiration time.Duration) error

	// Clear 清空缓存
	Clear(ctx context.Context) error

	// Close 关闭缓存连接
	Close() error
}

// Config 缓存配置
type Config struct {
	Type  string `env:"CACHE_TYPE"` // local 或 redis
	Redis RedisConfig
	Local LocalConfig
}

// RedisConfig Redis缓存配置
type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"`
}

// LocalConfig 本地缓存配置
type LocalConfig struct {
	MaxSize           int           `env:"LOCAL_CACHE_MAX_SIZE"`
	DefaultExpiration time.Duration `env:"LOCAL_CACHE_DEFAULT_EXPIRATION"`
	CleanupInterval   time.Duration `env:"LOCAL_CACHE_CLEANUP_INTERVAL"`
}

// NewCache 根据配置创建缓存实例
func NewCache(config Config) (Cache, error) {
	switch config.Type {
	case "", "local":
		return NewLocalCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	default:
		return nil, fmt.Errorf("unknown cache type: %s", config.Type)
	}
}
