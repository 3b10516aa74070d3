package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"stockledger/internal/apierror"

	"github.com/gin-gonic/gin"
)

// ── Auth rate limiter ─────────────────────────────────────────────────────────
// Fixed window per client IP, kept in memory. Guards register/login against
// password guessing; each instance counts on its own.

type rateEntry struct {
	count     int
	windowEnd time.Time
}

type rateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*rateEntry
	limit     int
	window    time.Duration
	now       func() time.Time
	lastPurge time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		entries: make(map[string]*rateEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// allow counts one hit for key and reports whether it is within the limit,
// plus the seconds until the window resets.
func (l *rateLimiter) allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) > l.window {
		for k, e := range l.entries {
			if now.After(e.windowEnd) {
				delete(l.entries, k)
			}
		}
		l.lastPurge = now
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	retry := int(e.windowEnd.Sub(now).Seconds()) + 1
	return e.count <= l.limit, retry
}

// AuthRateLimiter limits requests to limit per window per client IP.
func AuthRateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newRateLimiter(limit, window)
	return l.handler()
}

func (l *rateLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many attempts, try again later"))
			return
		}
		c.Next()
	}
}
