package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type IPRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	requests := rl.requests[ip]
	i := 0
	for ; i < len(requests); i++ {
		if requests[i].After(cutoff) {
			break
		}
	}
	requests = requests[i:]

	if len(requests) >= rl.limit {
		return false
	}

	rl.requests[ip] = append(requests, now)
	return true
}

// RateLimit caps requests per client IP over a sliding window. Applied to
// the credential endpoints to slow brute-force attempts.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := NewIPRateLimiter(limit, window)
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"msg":     "Too many requests. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
