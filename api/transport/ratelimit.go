package transport

import (
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/logging"
	"golang.org/x/time/rate"
	"net/http"
	"sync"
	"time"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	rate        rate.Limit
	burst       int
	idle        time.Duration
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters:    make(map[string]*limiterEntry),
		rate:        rate.Limit(perSecond),
		burst:       burst,
		idle:        5 * time.Minute,
		lastCleanup: time.Now(),
	}
}

// Allow takes a token for ip, or reports how long until one is available.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Idle buckets are swept inline, at most once per idle window.
	if now.Sub(rl.lastCleanup) > rl.idle {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > rl.idle {
				delete(rl.limiters, k)
			}
		}
		rl.lastCleanup = now
	}

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			logging.Log.Warnf("RATELIMIT: %s exceeded limit on %s", c.ClientIP(), c.Request.URL.Path)
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later", "code": "RATE_LIMITED"})
			return
		}
		c.Next()
	}
}
