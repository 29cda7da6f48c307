package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 300 requests per minute per IP. Map interactions are
	// chatty, so the ceiling sits well above normal widget traffic.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout covers road-routing calls
	v1 := app.Group("/v1")
	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), 15*time.Second))
	v1.Get("/sessions", timeout.NewWithContext(ListSessionsHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id", timeout.NewWithContext(DeleteSessionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/init", timeout.NewWithContext(InitSessionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/recenter", timeout.NewWithContext(RecenterHandler(deps), 15*time.Second))

	v1.Post("/sessions/:id/routes", timeout.NewWithContext(DrawRouteHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id/routes", timeout.NewWithContext(ClearRoutesHandler(deps), 15*time.Second))

	v1.Post("/sessions/:id/markers", timeout.NewWithContext(AddMarkersHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id/markers", timeout.NewWithContext(ClearMarkersHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/circles", timeout.NewWithContext(AddCirclesHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id/circles", timeout.NewWithContext(ClearCirclesHandler(deps), 15*time.Second))

	v1.Post("/sessions/:id/selector/enable", timeout.NewWithContext(EnableSelectorHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/selector/disable", timeout.NewWithContext(DisableSelectorHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/selector/point", timeout.NewWithContext(PlacePointHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/selector", timeout.NewWithContext(GetSelectorHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/selector/confirm", timeout.NewWithContext(ConfirmSelectionHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id/selector", timeout.NewWithContext(ClearPointHandler(deps), 15*time.Second))

	// Stored overlay sets
	v1.Post("/sessions/:id/overlays/:slug", timeout.NewWithContext(ApplyOverlayHandler(deps), 15*time.Second))
	v1.Get("/overlays", timeout.NewWithContext(ListOverlaySetsHandler(deps), 15*time.Second))
	v1.Post("/overlays", timeout.NewWithContext(SaveOverlayHandler(deps), 15*time.Second))
	v1.Delete("/overlays/:slug", timeout.NewWithContext(DeleteOverlaySetHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// WebSocket renderer bridge
	app.Use("/ws/:id", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:id", websocket.New(WebSocketHandler(deps)))
}
