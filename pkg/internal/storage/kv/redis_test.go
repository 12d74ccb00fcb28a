//go:build !no_redis

package kv

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/configs"
)

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(configs.RedisKVConfig{
		Addr:        "cache:6379",
		Username:    "docvault",
		Password:    "pw",
		DB:          2,
		PoolSize:    4,
		DialTimeout: 2 * time.Second,
	})

	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "docvault", opts.Username)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	assert.Equal(t, configs.AppName, opts.ClientName)
}

func TestNewRedisKVUnreachable(t *testing.T) {
	// 占用一个端口后立即关闭，保证无人监听
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = NewRedisKV(ctx, &configs.KVConfig{Redis: configs.RedisKVConfig{
		Addr:        addr,
		DialTimeout: 500 * time.Millisecond,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)

	_, err = NewRedisKV(ctx, nil)
	require.Error(t, err)
}
