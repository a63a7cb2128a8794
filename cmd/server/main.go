package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/karulmca/ScurmBoard/internal/config"
	"github.com/karulmca/ScurmBoard/internal/handlers"
	"github.com/karulmca/ScurmBoard/internal/logging"
	"github.com/karulmca/ScurmBoard/internal/metrics"
	"github.com/karulmca/ScurmBoard/internal/middleware"
	"github.com/karulmca/ScurmBoard/internal/proxy"
	"github.com/karulmca/ScurmBoard/internal/routes"
	"github.com/karulmca/ScurmBoard/internal/services"
)

func main() {
	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	slog.SetDefault(logging.New(cfg.Env, cfg.LogLevel))
	slog.Info("Starting Scrum Board gateway", "version", handlers.Version, "env", cfg.Env)

	// ─── Upstreams ───────────────────────────────────────────────────────
	backend, err := proxy.New(cfg.FastAPIURL, proxy.Options{
		Name:                  "backend",
		Unavailable:           "FastAPI backend unavailable",
		ResponseHeaderTimeout: cfg.ProxyResponseTimeout,
	})
	if err != nil {
		slog.Error("Invalid FASTAPI_URL", "error", err)
		os.Exit(1)
	}
	upstreams := routes.Upstreams{routes.Backend: backend}
	probeTargets := map[string]string{backend.Name(): cfg.FastAPIURL}

	if cfg.ConfigServiceURL != "" {
		configProxy, err := proxy.New(cfg.ConfigServiceURL, proxy.Options{
			Name:                  "config",
			Unavailable:           "Config service unavailable",
			ResponseHeaderTimeout: cfg.ProxyResponseTimeout,
		})
		if err != nil {
			slog.Error("Invalid CONFIG_SERVICE_URL", "error", err)
			os.Exit(1)
		}
		upstreams[routes.ConfigService] = configProxy
		probeTargets[configProxy.Name()] = cfg.ConfigServiceURL
	}

	// ─── Upstream Prober ─────────────────────────────────────────────────
	prober := services.NewUpstreamProber(probeTargets, cfg.UpstreamProbeInterval)
	prober.Start()

	// ─── Handlers ────────────────────────────────────────────────────────
	systemHandler := handlers.NewSystemHandler(prober)
	importHandler := handlers.NewImportHandler(backend, handlers.MaxImportSize)

	// ─── Fiber App ───────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "scrum-board-gateway v" + handlers.Version,
		BodyLimit:    handlers.MaxImportSize + 1024*1024, // multipart envelope
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: !cfg.IsProduction(),
	}))
	app.Use(middleware.RequestID())
	app.Use(middleware.Identity())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.CORS(cfg.AllowedOrigins))
	app.Use(middleware.RateLimit(cfg.RateLimitMax, cfg.RateLimitWindow))
	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
	}

	// ─── Routes ──────────────────────────────────────────────────────────
	routes.Setup(app, upstreams, systemHandler, importHandler, cfg.MetricsEnabled)

	// ─── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down gateway...")

		prober.Stop()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}
	}()

	// ─── Start ───────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("Scrum Board gateway listening",
		"addr", listenAddr,
		"backend", cfg.FastAPIURL,
		"config", cfg.ConfigUpstreamURL(),
	)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
