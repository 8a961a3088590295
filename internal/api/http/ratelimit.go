package http

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the idle TTL are dropped.
type RateLimiter struct {
	limiters  sync.Map // ip -> *ipLimiter
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

type ipLimiter struct {
	*rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiterOption customizes a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithIdleTTL sets how long an unused bucket is kept.
func WithIdleTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if ttl > 0 {
			rl.idleTTL = ttl
		}
	}
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst.
func NewRateLimiter(perSecond float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		rate:    rate.Limit(perSecond),
		burst:   burst,
		idleTTL: defaultLimiterIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.lastSweep.Store(rl.now().UnixNano())
	return rl
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()
	if last := rl.lastSweep.Load(); now.UnixNano()-last >= int64(rl.idleTTL) &&
		rl.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		rl.Sweep(now)
	}

	v, ok := rl.limiters.Load(key)
	if !ok {
		v, _ = rl.limiters.LoadOrStore(key, &ipLimiter{Limiter: rate.NewLimiter(rl.rate, rl.burst)})
	}
	l := v.(*ipLimiter)
	l.lastSeen.Store(now.UnixNano())
	return l.Limiter
}

// Sweep drops buckets not used within the idle TTL before now and returns
// how many were removed.
func (rl *RateLimiter) Sweep(now time.Time) int {
	cutoff := now.Add(-rl.idleTTL).UnixNano()
	removed := 0
	rl.limiters.Range(func(key, v any) bool {
		if v.(*ipLimiter).lastSeen.Load() < cutoff {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len reports the number of tracked client buckets.
func (rl *RateLimiter) Len() int {
	n := 0
	rl.limiters.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Handler rejects requests over the limit with RATE_LIMITED.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := rl.limiter(utils.CopyString(c.IP()))
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		if !l.Allow() {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, "1")
			return apperrors.NewRateLimited("too many login attempts, slow down")
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))
		return c.Next()
	}
}
