package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBucket(t *testing.T) {
	l := NewMemory(2, time.Minute)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retry, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 30, retry.Seconds(), 0.01, "one token per window/max")

	ok, _, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	// a refused attempt does not push the next token further out
	ok, retry2, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)
	assert.InDelta(t, retry.Seconds(), retry2.Seconds(), 0.01)

	now = now.Add(31 * time.Second)
	ok, _, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "token refilled")
	ok, _, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	now = now.Add(time.Minute)
	for i := 0; i < 2; i++ {
		ok, _, _ = l.Allow(ctx, "1.2.3.4")
		assert.True(t, ok, "bucket full after an idle window")
	}

	now = now.Add(2 * time.Minute)
	l.cleanup()
	l.mu.Lock()
	assert.Empty(t, l.visitors)
	l.mu.Unlock()
	l.Stop()
}

func TestRedisWindow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, "", 1, time.Minute)
	ctx := context.Background()

	ok, _, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, retry, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	mr.FastForward(2 * time.Minute)
	ok, _, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}
