package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geopick/internal/adapters/http"
	"github.com/samirrijal/geopick/internal/adapters/leafletws"
	natsadapter "github.com/samirrijal/geopick/internal/adapters/nats"
	"github.com/samirrijal/geopick/internal/adapters/osrm"
	"github.com/samirrijal/geopick/internal/adapters/postgres"
	"github.com/samirrijal/geopick/internal/adapters/valkey"
	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/core/usecases"
	"github.com/samirrijal/geopick/internal/pkg/config"
	"github.com/samirrijal/geopick/internal/pkg/logging"
	"github.com/samirrijal/geopick/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geopick-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (optional — only overlay sets live there)
	var db *postgres.DB
	var overlaySvc *usecases.OverlayService
	if d, err := postgres.New(ctx, cfg.Database.DSN()); err != nil {
		slog.Warn("postgres unavailable, overlay sets disabled", "error", err)
	} else {
		db = d
		defer db.Close()
		overlaySvc = usecases.NewOverlayService(postgres.NewOverlayRepo(db))
	}

	// Cache (optional — road routes just skip caching without it)
	var cache *valkey.Cache
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, route cache disabled", "error", err)
	} else {
		cache = c
		defer cache.Close()
	}

	// NATS (optional — sessions tolerate a nil publisher)
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, session events disabled", "error", err)
	} else {
		publisher = nc
		defer nc.Close()
	}

	// Road routing
	var routeCache ports.CacheService
	if cache != nil {
		routeCache = cache
	}
	finder := osrm.NewClient(
		cfg.OSRM.BaseURL,
		time.Duration(cfg.OSRM.TimeoutSeconds)*time.Second,
		routeCache,
		cfg.OSRM.CacheTTL,
	)

	// Sessions and renderer bridges
	hub := leafletws.NewHub()
	deps := &http.Dependencies{
		Sessions:  usecases.NewSessionManager(),
		Overlays:  overlaySvc,
		Finder:    finder,
		Publisher: publisher,
		Defaults: domain.MapConfig{
			Lat:           cfg.Map.Lat,
			Lng:           cfg.Map.Lng,
			Zoom:          cfg.Map.Zoom,
			ContainerID:   cfg.Map.ContainerID,
			TileSourceURL: cfg.Map.TileURL,
			Attribution:   cfg.Map.Attribution,
			SelectorIcon:  cfg.Map.SelectorIcon,
		},
		NewRenderer: func(sessionID string) ports.Renderer {
			return hub.Create(sessionID)
		},
		Bridges: hub,
		DB:      db,
		Cache:   cache,
	}
	if nc != nil {
		deps.NATS = nc.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "geopick API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Leaflet client page
	app.Static("/", "./web")

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
