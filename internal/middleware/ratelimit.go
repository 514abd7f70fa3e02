package middleware

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit limits each client IP to perSecond requests in a fixed one-second
// window counted in Redis. A limit of 0 or less disables the check.
// Requests are let through when Redis is unavailable.
func RateLimit(rdb redis.Cmdable, perSecond int) fiber.Handler {
	if perSecond <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	limit := strconv.Itoa(perSecond)

	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		now := time.Now()
		key := windowKey(c.IP(), now)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("Rate limit check failed: %v", err)
			return c.Next()
		}
		if count == 1 {
			// Set expiration for the new window
			rdb.Expire(ctx, key, 2*time.Second)
		}

		c.Set("X-RateLimit-Limit", limit)

		if count > int64(perSecond) {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()+1, 10))
			c.Set("Retry-After", "1")

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests per second",
				"limit":       perSecond,
				"retry_after": 1,
			})
		}

		c.Set("X-RateLimit-Remaining", strconv.FormatInt(int64(perSecond)-count, 10))
		return c.Next()
	}
}

func windowKey(ip string, now time.Time) string {
	return fmt.Sprintf("rl:ip:%s:second:%d", ip, now.Unix())
}
