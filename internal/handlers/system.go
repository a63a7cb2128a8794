package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/karulmca/ScurmBoard/internal/services"
)

var startTime = time.Now()
var Version = "1.0.0"

type SystemHandler struct {
	prober *services.UpstreamProber
}

// NewSystemHandler builds the root and health endpoints. prober may be nil.
func NewSystemHandler(prober *services.UpstreamProber) *SystemHandler {
	return &SystemHandler{prober: prober}
}

// Root describes the gateway and its public surface.
func (h *SystemHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":      "Scrum Board API Gateway",
		"version":   Version,
		"status":    "running",
		"webUI":     "http://localhost:5173",
		"mobileWeb": "http://localhost:8081",
		"endpoints": fiber.Map{
			"health":        "GET  /health",
			"workitems":     "GET|POST|PATCH|DELETE /api/workitems",
			"tasks":         "GET|PATCH /api/tasks",
			"reports":       "GET /api/reports/daily|weekly|monthly",
			"import":        "POST /api/import",
			"organizations": "GET|POST|PATCH|DELETE /api/organizations",
			"projects":      "GET|POST|PATCH|DELETE /api/projects",
			"sprints":       "PATCH|DELETE /api/sprints/:id, POST /api/sprints/:id/activate|complete",
			"config":        "GET|POST /api/config, GET /api/config/defaults, DELETE /api/config/:key",
			"teams":         "GET|POST|PATCH|DELETE /api/teams, /api/users",
		},
	})
}

// Health is a liveness probe: it answers 200 as long as the process serves
// requests. Upstream reachability is reported but does not change the status.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":  "ok",
		"gateway": "scrum-board",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  time.Since(startTime).Seconds(),
	}
	if h.prober != nil {
		resp["upstreams"] = h.prober.Snapshot()
	}
	return c.JSON(resp)
}

// NotFound is the catch-all for unroutable paths.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Route not found",
	})
}
