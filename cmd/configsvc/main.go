package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/karulmca/ScurmBoard/internal/config"
	"github.com/karulmca/ScurmBoard/internal/configstore"
	"github.com/karulmca/ScurmBoard/internal/database"
	"github.com/karulmca/ScurmBoard/internal/handlers"
	"github.com/karulmca/ScurmBoard/internal/logging"
	"github.com/karulmca/ScurmBoard/internal/metrics"
	"github.com/karulmca/ScurmBoard/internal/middleware"
	"github.com/karulmca/ScurmBoard/internal/routes"
)

func main() {
	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	slog.SetDefault(logging.New(cfg.Env, cfg.LogLevel))
	slog.Info("Starting Scrum Board config service", "version", handlers.Version)

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	// ─── Handlers ────────────────────────────────────────────────────────
	store := configstore.NewGormStore(database.DB)
	configHandler := handlers.NewConfigHandler(store)
	systemHandler := handlers.NewSystemHandler(nil)

	// ─── Fiber App ───────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "scrum-board-configsvc v" + handlers.Version,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: !cfg.IsProduction(),
	}))
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
	}

	routes.SetupConfigService(app, systemHandler, configHandler, cfg.MetricsEnabled)

	// ─── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down config service...")

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}
		database.Close()
	}()

	// ─── Start ───────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.ConfigServicePort
	slog.Info("Config service listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
