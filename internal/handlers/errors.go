package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler turns an error returned by any handler or middleware into a
// JSON {error} body with the error's status, or 500. Bodies over the app's
// BodyLimit are rejected by the server before routing and arrive here as 413.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal gateway error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else if err != nil && err.Error() != "" {
		message = err.Error()
	}

	if code == fiber.StatusRequestEntityTooLarge {
		slog.Warn("Request body too large", "method", c.Method(), "path", c.Path())
		return c.Status(code).JSON(fiber.Map{
			"error":  "File too large",
			"detail": fmt.Sprintf("request body exceeds %d bytes", c.App().Config().BodyLimit),
		})
	}

	slog.Error("Gateway error",
		"method", c.Method(),
		"path", c.Path(),
		"status", code,
		"error", err,
	)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
