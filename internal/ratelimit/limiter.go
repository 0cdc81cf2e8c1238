package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Limiter counts hits per caller-chosen key against a limit per window
type Limiter interface {
	// Allow counts one hit for key and reports whether it is within limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisLimiter shares counters across processes via INCR + EXPIRE
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a limiter on client
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "subdns:ratelimit:"}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, d time.Duration) (bool, error) {
	k := l.prefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	// 只在窗口第一次计数时设置过期
	if n == 1 {
		if err := l.client.Expire(ctx, k, d).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= int64(limit), nil
}

type bucket struct {
	limiter  *rate.Limiter
	limit    int
	window   time.Duration
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. A bucket
// holds limit tokens and refills limit per window, so an idle key gets its
// full budget back after one window, as the redis counter does.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, d time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	// 限额来自系统设置，变更后按新参数重建
	if !ok || b.limit != limit || b.window != d {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(d/time.Duration(limit)), limit),
			limit:   limit,
			window:  d,
		}
		l.buckets[key] = b
		l.sweep(now)
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// sweep drops buckets idle for a whole window, which are full again anyway; callers hold mu
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= b.window {
			delete(l.buckets, k)
		}
	}
}

// FallbackLimiter prefers redis and degrades to memory when redis errors
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	logger   *logrus.Entry
}

// New returns a redis-backed limiter with memory fallback, or a memory
// limiter alone when client is nil
func New(client *redis.Client, logger *logrus.Entry) Limiter {
	mem := NewMemoryLimiter()
	if client == nil {
		return mem
	}
	return &FallbackLimiter{
		primary:  NewRedisLimiter(client),
		fallback: mem,
		logger:   logger.WithField("component", "ratelimit"),
	}
}

// Allow implements Limiter
func (l *FallbackLimiter) Allow(ctx context.Context, key string, limit int, d time.Duration) (bool, error) {
	ok, err := l.primary.Allow(ctx, key, limit, d)
	if err == nil {
		return ok, nil
	}
	l.logger.WithError(err).Warn("redis limiter unavailable, falling back to memory")
	return l.fallback.Allow(ctx, key, limit, d)
}
