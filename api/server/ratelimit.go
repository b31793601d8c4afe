package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures the token-bucket middleware.
type RateLimitConfig struct {
	WindowMS    int
	MaxRequests int
}

// rateLimit builds a single process-wide token bucket refilling
// MaxRequests every WindowMS. It is intentionally not per-client: the
// checkout/webhook endpoints sit behind a single ingress in every
// deployment this system targets.
func rateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 || cfg.WindowMS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	window := time.Duration(cfg.WindowMS) * time.Millisecond
	limiter := rate.NewLimiter(rate.Every(window/time.Duration(cfg.MaxRequests)), cfg.MaxRequests)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "RATE_LIMIT_EXCEEDED",
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
