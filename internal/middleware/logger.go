package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger writes one structured line per request. Health probes are
// not logged.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/health" {
			return err
		}

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}
		if id, ok := c.Locals(LocalRequestID).(string); ok {
			attrs = append(attrs, "request_id", id)
		}
		if sub, ok := c.Locals(LocalSubject).(string); ok {
			attrs = append(attrs, "user", sub)
		}

		if status >= fiber.StatusInternalServerError {
			slog.Warn("request", attrs...)
		} else {
			slog.Info("request", attrs...)
		}
		return err
	}
}
