package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleAfter is how long an untouched client bucket is kept before sweeping.
const idleAfter = 10 * time.Minute

// TokenBucket is an in-memory per-client rate limiter refilled every minute.
type TokenBucket struct {
	capacity  int
	perMinute int
	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter allowing burst requests at once and
// perMinute sustained. burst <= 0 means burst equals perMinute.
func NewTokenBucket(burst, perMinute int) *TokenBucket {
	if burst <= 0 {
		burst = perMinute
	}
	return &TokenBucket{
		capacity:  burst,
		perMinute: perMinute,
		clients:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// Middleware rejects requests from clients over their budget with 429.
// Paths listed in skip are never counted.
func (l *TokenBucket) Middleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok || l.perMinute <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !l.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *TokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.clients[key]
	if !ok {
		l.clients[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.perMinute))
	if refill > 0 {
		b.tokens = min(b.tokens+refill, l.capacity)
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle long enough to be full again. Callers hold mu.
func (l *TokenBucket) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.clients {
		if now.Sub(b.last) >= idleAfter {
			delete(l.clients, key)
		}
	}
}
