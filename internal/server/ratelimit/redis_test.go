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

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestRedisLimiterWindow(t *testing.T) {
	s, client := newRedis(t)

	lim := NewRedisLimiter(client, 2, 500*time.Millisecond, "test:")
	ctx := context.Background()

	allowed, _, err := lim.Allow(ctx, "ip", time.Now())
	if err != nil || !allowed {
		t.Fatalf("expected allow on first call")
	}

	allowed, _, err = lim.Allow(ctx, "ip", time.Now())
	if err != nil || !allowed {
		t.Fatalf("expected allow on second call")
	}

	allowed, retryAfter, err := lim.Allow(ctx, "ip", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected rate limited")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected retryAfter > 0")
	}

	assert.True(t, s.Exists("test:ip"))

	s.FastForward(600 * time.Millisecond)
	allowed, _, err = lim.Allow(ctx, "ip", time.Now())
	if err != nil || !allowed {
		t.Fatalf("expected allow after window")
	}
}

func TestRedisLimiterDefaultPrefix(t *testing.T) {
	s, client := newRedis(t)

	lim := NewRedisLimiter(client, 1, time.Second, "")
	_, _, err := lim.Allow(context.Background(), "10.0.0.1", time.Now())
	require.NoError(t, err)
	assert.True(t, s.Exists(defaultRedisPrefix+"10.0.0.1"))
}

func TestRedisLimiterErrors(t *testing.T) {
	_, client := newRedis(t)

	_, _, err := NewRedisLimiter(client, 1, 0, "").Allow(context.Background(), "k", time.Now())
	assert.Error(t, err, "zero window is rejected")

	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = down.Close() })
	_, _, err = NewRedisLimiter(down, 1, time.Second, "").Allow(context.Background(), "k", time.Now())
	assert.Error(t, err, "unreachable redis surfaces an error")
}
