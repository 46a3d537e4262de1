package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Counter is a shared fixed-window counter, normally Redis
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Result describes one hit against a limit
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Duration
}

type bucket struct {
	count   int64
	resetAt time.Time
}

// Limiter counts hits per key in fixed windows. It uses the shared counter
// when one is configured and falls back to process-local buckets when the
// counter is missing or failing.
type Limiter struct {
	shared Counter
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewLimiter(shared Counter) *Limiter {
	return &Limiter{
		shared:  shared,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow records a hit on key and reports whether it stays within limit
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) Result {
	if l.shared != nil {
		count, ttl, err := l.shared.Incr(ctx, key, window)
		if err == nil {
			return result(count, limit, ttl)
		}
		util.GetLogger().Warn("Shared rate limiter unavailable, using local counter",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return l.allowLocal(key, limit, window)
}

func (l *Limiter) allowLocal(key string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
		l.sweep(now)
	}
	b.count++
	return result(b.count, limit, b.resetAt.Sub(now))
}

// sweep drops expired buckets. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

func result(count int64, limit int, reset time.Duration) Result {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Remaining: int(remaining),
		Reset:     reset,
	}
}

// Middleware limits a route per client IP
func (l *Limiter) Middleware(route string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + route + ":" + c.ClientIP()
		res := l.Allow(c.Request.Context(), key, limit, window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			util.RateLimitedTotal.WithLabelValues(route).Inc()
			retryAfter := int(res.Reset.Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
