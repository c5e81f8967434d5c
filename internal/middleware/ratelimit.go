package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/digitalme/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware is a fixed-window limiter keyed by client IP. Redis
// errors let the request through.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bucket := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("rl:%s:%d", c.IP(), bucket)

		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(c.Context(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.Context(), key)
			pipe.Expire(c.Context(), key, window)
			return nil
		})
		if err != nil {
			return c.Next() // fail open
		}

		count := incr.Val()
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: "rate limit exceeded"})
		}

		return c.Next()
	}
}
