package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired 锁已被其他实例持有
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker 基于 redsync 的分布式锁
type Locker struct {
	rs *redsync.Redsync
}

// NewLocker 创建分布式锁；client 为空时返回 nil，调用方按无锁运行
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{rs: redsync.New(goredis.NewPool(client))}
}

// Acquire 尝试获取锁（只尝试一次），返回释放函数
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.rs == nil {
		return func(context.Context) error { return nil }, nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	mutex := l.rs.NewMutex(
		buildKey(key),
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockNotAcquired, err)
	}
	return func(ctx context.Context) error {
		_, err := mutex.UnlockContext(ctx)
		return err
	}, nil
}
