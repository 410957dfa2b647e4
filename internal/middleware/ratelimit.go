package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/peoplehub/hr-identity/pkg/response"
)

// RateLimitConfig holds login rate limiter settings.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// LoginRateLimit limits attempts per client IP using a Redis fixed window.
// The limiter is defense-in-depth: when Redis is unreachable it fails open
// so login stays available during a cache outage.
func LoginRateLimit(rdb *redis.Client, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		window := time.Now().Unix() / int64(cfg.Window.Seconds())
		key := fmt.Sprintf("ratelimit:login:%s:%d", c.ClientIP(), window)

		pipe := rdb.TxPipeline()
		count := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, cfg.Window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if count.Val() > int64(cfg.Requests) {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many login attempts, try again later", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
