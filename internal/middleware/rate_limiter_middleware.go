package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimiter allows max requests per expiration window for each caller. Callers are
// told apart by X-User-ID, falling back to the client IP.
func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max == 0 {
		max = 50
	}
	if expiration == 0 {
		expiration = 1 * time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := strings.TrimSpace(c.Get(RequesterHeader)); id != "" {
				return "user:" + id
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"code":    "rate_limited",
				"message": "too many requests",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
