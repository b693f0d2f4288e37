package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Counter increments a fixed-window counter and reports the time left in
// the window.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter shares windows across every API instance.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(redisURL string) (*RedisCounter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCounter{client: client}, nil
}

func (r *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	// First hit opens the window.
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return count, window, err
	}
	if ttl < 0 {
		// A key without expiry would never reset.
		r.client.Expire(ctx, key, window)
		ttl = window
	}
	return count, ttl, nil
}

func (r *RedisCounter) Close() error {
	return r.client.Close()
}

// MemoryCounter keeps windows in process, for single-instance deployments.
type MemoryCounter struct {
	cache *cache.Cache
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{cache: cache.New(time.Minute, 5*time.Minute)}
}

func (m *MemoryCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	// Add fails while the window is open, which is fine.
	_ = m.cache.Add(key, int64(0), window)
	count, err := m.cache.IncrementInt64(key, 1)
	if err != nil {
		return 0, 0, err
	}

	ttl := window
	if _, expiresAt, ok := m.cache.GetWithExpiration(key); ok && !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
	}
	return count, ttl, nil
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
}

func NewLimiter(counter Counter, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
	}
}

// Allow counts one hit for key. It fails open: when the counter errors the
// request is allowed and the error is returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	count, ttl, err := l.counter.Increment(ctx, fmt.Sprintf("ratelimit:%s", key), l.window)
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(l.limit),
		Limit:      l.limit,
		Remaining:  remaining,
		RetryAfter: ttl,
	}, nil
}
