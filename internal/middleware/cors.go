package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/karulmca/ScurmBoard/internal/proxy"
)

// CORS admits requests without an Origin (mobile apps, curl) and requests
// from the allow-list; any other origin is refused with 403.
func CORS(origins []string) fiber.Handler {
	allowed := make(map[string]bool, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	cfg := cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     proxy.AllowMethods,
		AllowHeaders:     proxy.AllowHeaders,
		AllowCredentials: true,
	}
	if wildcard {
		// fiber refuses credentials together with a wildcard origin
		cfg.AllowOrigins = "*"
		cfg.AllowCredentials = false
	}
	handler := cors.New(cfg)

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin != "" && !wildcard && !allowed[origin] {
			return fiber.NewError(fiber.StatusForbidden, fmt.Sprintf("CORS: origin '%s' not allowed", origin))
		}
		return handler(c)
	}
}
