// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值以 sonic 序列化为 JSON，键统一加上配置的命名空间前缀.
// 目前缓存的热点是存储状态（每次页面加载都会查询），
// 任何改变存储配置或锁的写操作都必须调用 Delete 使其失效.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "docvault:", 5*time.Minute)
//
//	status, err := cache.GetOrSet(ctx, c, cache.KeyStorageStatus, func() (Status, error) {
//	    return loadStatusFromDB(ctx)
//	}, 0)
//
// 错误处理:
//   - 缓存未命中返回 ErrMiss
//   - 序列化/反序列化错误会被包装并返回
//   - GetOrSet 中写缓存失败不影响返回值
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/docvault/pkg/internal/storage/kv"
)

// 缓存键.
const (
	KeyStorageStatus = "storage:status"
)

// ErrMiss 缓存未命中.
var ErrMiss = errors.New("cache miss")

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore    kv.KVStore
	prefix     string
	defaultTTL time.Duration
}

// NewCache 创建一个新的缓存实例，ttl 为 0 的写入使用 defaultTTL.
func NewCache(kvStore kv.KVStore, prefix string, defaultTTL time.Duration) *Cache {
	return &Cache{
		kvStore:    kvStore,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return zero, ErrMiss
	}

	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，如果不存在则调用 getter 并写入.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return zero, err
	}

	// 缓存失败，但仍返回值
	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Clear 清空当前命名空间下的缓存.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, c.prefix+"*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
