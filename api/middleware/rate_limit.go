package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"learnhub/internal/security"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than ttl are dropped on the next new visitor.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	ttl      time.Duration

	// Events receives RATE_LIMIT_EXCEEDED for every rejected request.
	Events security.EventSink
}

func NewRateLimiter(r rate.Limit, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.allow(c.RealIP(), time.Now()) {
				return next(c)
			}
			details := requestDetails(c)
			details.Reason = "rate limit exceeded"
			details.Extra = map[string]any{"route": c.Path(), "burst": l.burst}
			emit(c, l.Events, security.RateLimitExceeded, details)

			if l.rate > 0 && !math.IsInf(float64(l.rate), 1) {
				retry := int(math.Ceil(1 / float64(l.rate)))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
			}
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		}
	}
}

func (l *RateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		l.evictIdle(now)
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	if l.ttl <= 0 {
		return
	}
	cutoff := now.Add(-l.ttl)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}
