package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geopick/internal/adapters/leafletws"
	"github.com/samirrijal/geopick/internal/adapters/postgres"
	"github.com/samirrijal/geopick/internal/adapters/valkey"
	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions  *usecases.SessionManager
	Overlays  *usecases.OverlayService
	Finder    ports.RouteFinder
	Publisher ports.EventPublisher
	Defaults  domain.MapConfig

	// NewRenderer creates the rendering bridge for a new session. Tests
	// inject fakes here; the service wires it to Bridges.Create.
	NewRenderer func(sessionID string) ports.Renderer
	Bridges     *leafletws.Hub

	// Infrastructure handles for readiness checks. All optional.
	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
