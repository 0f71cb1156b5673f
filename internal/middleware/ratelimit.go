package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/strandhq/strand/backend/internal/logger"
	"github.com/strandhq/strand/backend/internal/util"
	"go.uber.org/zap"
)

// RateLimit is a fixed-window per-user limiter backed by Redis, applied to
// write endpoints. It fails open: when Redis is down, writes still work and
// the failure is logged. A nil client disables limiting entirely.
func RateLimit(client *redis.Client, maxPerWindow int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || maxPerWindow <= 0 {
			c.Next()
			return
		}

		subject := util.OptionalUserID(c)
		if subject == "" {
			subject = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s", subject)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				logger.Log.Warn("Failed to set rate limit window", zap.Error(err))
			}
		}

		if count > int64(maxPerWindow) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
