package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	RequesterHeader = "X-User-ID"
	requesterKey    = "requesterID"
)

// RequireRequester rejects requests without the caller identity set by the auth proxy.
func RequireRequester() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(RequesterHeader))
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"code":    "requester_required",
				"message": RequesterHeader + " header is required",
			})
		}
		c.Locals(requesterKey, id)
		return c.Next()
	}
}

func RequesterID(c *fiber.Ctx) string {
	id, _ := c.Locals(requesterKey).(string)
	return id
}
