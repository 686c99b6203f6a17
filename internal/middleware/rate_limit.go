package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL       = 10 * time.Minute
	visitorSweepInterval = time.Minute
)

// RateLimiter is a token bucket per client. The key is the authenticated wallet
// when a wallet session precedes the limiter, otherwise the client IP.
// Buckets idle for visitorIdleTTL are evicted.
type RateLimiter struct {
	name     string
	visitors *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewRateLimiter creates a limiter allowing r requests per second with bursts of b.
// name labels the rejection metric.
func NewRateLimiter(name string, r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		name:     name,
		visitors: cache.New(visitorIdleTTL, visitorSweepInterval),
		r:        r,
		b:        b,
	}
}

func (rl *RateLimiter) visitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors.Get(key); ok {
		limiter := v.(*rate.Limiter)
		rl.visitors.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(rl.r, rl.b)
	rl.visitors.SetDefault(key, limiter)
	return limiter
}

// Middleware returns the gin handler enforcing the limit
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if caller, err := CallerAddress(c); err == nil {
			key = "wallet:" + caller.String()
		}

		if !rl.visitor(key).Allow() {
			metrics.RateLimitRejected.WithLabelValues(rl.name).Inc()
			c.Header("Retry-After", rl.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// retryAfter is the whole seconds until one token refills
func (rl *RateLimiter) retryAfter() string {
	if rl.r <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(rl.r))))
}
