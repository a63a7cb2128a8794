package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/karulmca/ScurmBoard/internal/handlers"
	"github.com/karulmca/ScurmBoard/internal/metrics"
	"github.com/karulmca/ScurmBoard/internal/proxy"
)

// Upstreams maps each Upstream to its proxy. ConfigService falls back to
// Backend when absent.
type Upstreams map[Upstream]*proxy.Proxy

func (u Upstreams) For(up Upstream) *proxy.Proxy {
	if p, ok := u[up]; ok && p != nil {
		return p
	}
	return u[Backend]
}

func Setup(
	app *fiber.App,
	upstreams Upstreams,
	systemHandler *handlers.SystemHandler,
	importHandler *handlers.ImportHandler,
	metricsEnabled bool,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/", systemHandler.Root)
	app.Get("/health", systemHandler.Health)
	if metricsEnabled {
		app.Get("/metrics", metrics.Handler())
	}

	api := app.Group("/api")

	// ─── Import (multipart re-encode) ────────────────────────────────────
	api.Post("/import", importHandler.Upload)

	// ─── Proxied resources ───────────────────────────────────────────────
	for _, route := range Table() {
		api.Add(route.Method, route.Path, Dispatch(upstreams.For(route.Upstream), route.Target))
	}

	// ─── Catch-all ───────────────────────────────────────────────────────
	app.Use(handlers.NotFound)
}

// Dispatch builds the handler for one route: fill in the target path from
// the request's path parameters and hand off to the proxy.
func Dispatch(p *proxy.Proxy, target string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return p.Forward(c, TargetPath(target, func(name string) string {
			return c.Params(name)
		}))
	}
}

// SetupConfigService registers the standalone config service API.
func SetupConfigService(app *fiber.App, systemHandler *handlers.SystemHandler, configHandler *handlers.ConfigHandler, metricsEnabled bool) {
	app.Get("/health", systemHandler.Health)
	if metricsEnabled {
		app.Get("/metrics", metrics.Handler())
	}

	app.Get("/config", configHandler.GetConfig)
	app.Post("/config", configHandler.UpsertConfig)
	app.Get("/config/defaults", configHandler.GetDefaults)
	app.Get("/config/:key", configHandler.GetConfigKey)
	app.Post("/config/:key", configHandler.UpsertConfigKey)
	app.Delete("/config/:key", configHandler.ResetConfig)

	app.Use(handlers.NotFound)
}
