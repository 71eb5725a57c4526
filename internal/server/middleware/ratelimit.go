package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fableforge/fable-engine/pkg/api"
)

// RateLimiter keeps a token bucket per client IP so one chatty story client
// cannot starve the provider pool for everyone else.
type RateLimiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.RWMutex
	rps     rate.Limit
	burst   int
	logger  *zap.Logger
}

func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
	}
}

func (rl *RateLimiter) bucket(ip string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.buckets[ip]
	rl.mu.RUnlock()
	if ok {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Re-check under the write lock; another request may have won the race.
	if limiter, ok = rl.buckets[ip]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[ip] = limiter
	return limiter
}

// Middleware rejects over-limit requests with a 429 problem.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !rl.bucket(ip).Allow() {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				api.RateLimitedError("request rate limit exceeded, slow down"))
			return
		}

		c.Next()
	}
}
