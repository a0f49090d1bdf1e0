package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc picks the bucket a request draws from.
type KeyFunc func(c *gin.Context) string

// ByClientIP buckets requests per client address.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByProfile buckets requests per learner, falling back to the client
// address on routes without a profile id.
func ByProfile(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return "profile:" + id
	}
	return "ip:" + c.ClientIP()
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit provides token-bucket rate limiting keyed by key.
// r = requests per second, b = burst size. Idle buckets are swept every few
// minutes until ctx is done.
func RateLimit(ctx context.Context, r rate.Limit, b int, key KeyFunc) gin.HandlerFunc {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-10 * time.Minute)
				mu.Lock()
				for k, v := range buckets {
					if v.lastSeen.Before(cutoff) {
						delete(buckets, k)
					}
				}
				mu.Unlock()
			}
		}
	}()

	allow := func(k string) bool {
		mu.Lock()
		defer mu.Unlock()
		bk, ok := buckets[k]
		if !ok {
			bk = &bucket{limiter: rate.NewLimiter(r, b)}
			buckets[k] = bk
		}
		bk.lastSeen = time.Now()
		return bk.limiter.Allow()
	}

	return func(c *gin.Context) {
		if !allow(key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
