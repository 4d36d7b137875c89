package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"resource-locator/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL     = 3 * time.Minute
	visitorSweepPeriod = time.Minute
)

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than visitorIdleTTL are forgotten by a sweep that runs until the context
// passed to NewIPRateLimiter is cancelled.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	done     chan struct{}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(ctx context.Context, limit rate.Limit, burst int) *IPRateLimiter {
	l := newIPRateLimiter(limit, burst)
	go l.sweep(ctx, visitorSweepPeriod)
	return l
}

func newIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idleTTL:  visitorIdleTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Allow spends one token from ip's bucket.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	l.mu.Unlock()

	return v.limiter.Allow()
}

// Len is the number of tracked IPs.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Done is closed once the sweep goroutine has exited.
func (l *IPRateLimiter) Done() <-chan struct{} {
	return l.done
}

func (l *IPRateLimiter) sweep(ctx context.Context, every time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.forgetIdle()
		}
	}
}

func (l *IPRateLimiter) forgetIdle() {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// RateLimitMiddleware limits each client IP to cfg.RPS requests per second
// with bursts of cfg.Burst. A non-positive RPS disables limiting. The idle
// sweep stops when ctx is cancelled.
func RateLimitMiddleware(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewIPRateLimiter(ctx, rate.Limit(cfg.RPS), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, slow down.",
			})
			return
		}
		c.Next()
	}
}
