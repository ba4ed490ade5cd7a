// Package ratelimit provides fixed-window request limits keyed by scope and subject.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// Limiter counts a hit for (scope, subject) and reports whether it is within limit for the window.
type Limiter interface {
	Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (Result, error)
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter shares counters across instances through Redis.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLimiter returns a limiter storing counters under prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "portfolio-admin:rate_limit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow increments the window counter atomically.
func (l *RedisLimiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (Result, error) {
	if l == nil || l.client == nil || skip(scope, subject, limit, window) {
		return Result{Allowed: true}, nil
	}
	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}
	key := fmt.Sprintf("%s:%s:%s", l.prefix, strings.TrimSpace(scope), strings.TrimSpace(subject))
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return Result{Allowed: true}, err
	}
	count, ttlMs, err := parseScriptResult(raw)
	if err != nil {
		return Result{Allowed: true}, err
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}
	return result(int(count), limit, time.Duration(ttlMs)*time.Millisecond), nil
}

func parseScriptResult(raw any) (int64, int64, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("ratelimit: unexpected redis response shape %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("ratelimit: unexpected count type %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return count, 0, fmt.Errorf("ratelimit: unexpected ttl type %T", values[1])
	}
	return count, ttl, nil
}

// MemoryLimiter keeps counters in process. Used when no Redis is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter returns an empty in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

// Allow counts the hit in the current window, starting a new window once the previous one ends.
func (l *MemoryLimiter) Allow(ctx context.Context, scope, subject string, limit int, win time.Duration) (Result, error) {
	if skip(scope, subject, limit, win) {
		return Result{Allowed: true}, nil
	}
	now := l.now()
	key := scope + ":" + subject

	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.sweep(now)
		w = &window{resetAt: now.Add(win)}
		l.windows[key] = w
	}
	w.count++
	return result(w.count, limit, w.resetAt.Sub(now)), nil
}

// sweep drops finished windows. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

func skip(scope, subject string, limit int, window time.Duration) bool {
	return limit <= 0 || window <= 0 || strings.TrimSpace(scope) == "" || strings.TrimSpace(subject) == ""
}

func result(count, limit int, ttl time.Duration) Result {
	retry := time.Duration(math.Ceil(ttl.Seconds())) * time.Second
	if retry < time.Second {
		retry = time.Second
	}
	return Result{Allowed: count <= limit, Count: count, RetryAfter: retry}
}
