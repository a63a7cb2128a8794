package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const LocalRequestID = "request_id"

// RequestID makes sure every request carries an X-Request-ID. The id is
// written back onto the incoming request so the proxy forwards it upstream.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request().Header.Set(fiber.HeaderXRequestID, id)
		}
		c.Locals(LocalRequestID, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}
