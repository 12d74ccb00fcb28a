package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &MemoryKV{now: func() time.Time { return now }}

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Second))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Second)

	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrKeyNotFound)

	ok, err := m.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLWrapperPassThrough(t *testing.T) {
	raw := []byte(`{"plain":true}`)

	out, wrapped, err := encodeWithTTL(raw, 0, time.Now())
	require.NoError(t, err)
	assert.False(t, wrapped)
	assert.Equal(t, raw, out)

	v, expired, wrapped, err := decodeWithTTL(out, time.Now())
	require.NoError(t, err)
	assert.False(t, expired)
	assert.False(t, wrapped)
	assert.Equal(t, raw, v)
}
