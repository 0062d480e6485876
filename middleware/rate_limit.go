// middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowLimiter counts requests in fixed one-minute windows. Allow is
// non-blocking: callers over the limit are rejected, not queued.
type WindowLimiter struct {
	mu          sync.Mutex
	limit       int
	count       int
	windowStart time.Time
	now         func() time.Time
}

func NewWindowLimiter(perMinute int) *WindowLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &WindowLimiter{
		limit: perMinute,
		now:   time.Now,
	}
}

// Allow consumes one slot in the current window if any remain
func (wl *WindowLimiter) Allow() bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	now := wl.now()
	if now.Sub(wl.windowStart) >= time.Minute {
		wl.windowStart = now
		wl.count = 0
	}

	if wl.count >= wl.limit {
		return false
	}

	wl.count++
	return true
}

// RateLimit rejects requests over the per-minute budget with 429
func RateLimit(limiter *WindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
