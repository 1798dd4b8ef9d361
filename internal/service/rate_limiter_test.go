package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryRateLimiter_SlidingWindow(t *testing.T) {
	l := NewRateLimiter(time.Minute, 2).(*memoryRateLimiter)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatalf("expected first two calls allowed")
	}
	if l.Allow("u1") {
		t.Fatalf("expected third call denied")
	}
	if !l.Allow("u2") {
		t.Fatalf("expected other keys unaffected")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("u1") {
		t.Fatalf("expected allow after window passes")
	}
	if l.Allow(" ") {
		t.Fatalf("expected empty key rejected")
	}
}

func TestMemoryRateLimiter_DropsIdleKeys(t *testing.T) {
	l := NewRateLimiter(time.Minute, 5).(*memoryRateLimiter)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for _, user := range []string{"u1", "u2", "u3"} {
		l.Allow(user)
	}
	now = now.Add(30 * time.Second)
	l.Allow("u2")

	now = now.Add(45 * time.Second)
	l.Allow("u4")
	if _, ok := l.hits["u1"]; ok {
		t.Fatalf("idle key u1 should be dropped, got %v", l.hits)
	}
	if _, ok := l.hits["u3"]; ok {
		t.Fatalf("idle key u3 should be dropped, got %v", l.hits)
	}
	if _, ok := l.hits["u2"]; !ok || len(l.hits["u4"]) != 1 {
		t.Fatalf("recent keys must be kept, got %v", l.hits)
	}
}

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisRateLimiter
		if !l.Allow("u1") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("nil client returns nil limiter", func(t *testing.T) {
		if NewRedisRateLimiter(nil, "chat:rl:", time.Minute, 20) != nil {
			t.Fatalf("expected nil limiter without redis client")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 20}
		l := &redisRateLimiter{client: mock, window: 2 * time.Minute, max: 20, prefix: "chat:rl:"}
		if !l.Allow(" User-1 ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "chat:rl:user-1" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 21}, window: time.Minute, max: 20, prefix: "chat:rl:"}
		if l.Allow("u1") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 20, prefix: "chat:rl:"}
		if !l.Allow("u1") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}
