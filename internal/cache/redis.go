package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cafe-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "cafe"
	pingTimeout   = 3 * time.Second
)

var (
	mu     sync.RWMutex
	client *redis.Client
	prefix = defaultPrefix
)

// InitRedis 初始化 Redis 客户端；连接探测失败时关闭缓存并返回错误，调用方按降级处理
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		return Close()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		_ = Close()
		return fmt.Errorf("ping redis %s: %w", cfg.Addr(), err)
	}

	keyPrefix := strings.TrimSpace(cfg.Prefix)
	if keyPrefix == "" {
		keyPrefix = defaultPrefix
	}
	mu.Lock()
	old := client
	client, prefix = rdb, keyPrefix
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close 关闭客户端，之后所有缓存操作为空操作
func Close() error {
	mu.Lock()
	old := client
	client = nil
	mu.Unlock()
	if old == nil {
		return nil
	}
	return old.Close()
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return Client() != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	rdb := Client()
	if rdb == nil {
		return false, nil
	}
	raw, err := rdb.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	rdb := Client()
	if rdb == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, keys ...string) error {
	rdb := Client()
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, buildKey(key))
	}
	return rdb.Del(ctx, full...).Err()
}

func buildKey(key string) string {
	mu.RLock()
	p := prefix
	mu.RUnlock()
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return p
	}
	return p + ":" + trimmed
}
