package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/pkg/geospatial"
	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// Route drawing defaults.
const (
	defaultRouteColor      = "#0066ff"
	defaultRouteWeight     = 4
	defaultRouteOpacity    = 0.85
	defaultStraightDash    = "8 6"
	defaultOriginIcon      = "home"
	defaultDestinationIcon = "package"
)

// RouteOptions control a single DrawRoute call. Zero values mean defaults.
type RouteOptions struct {
	// UseRoadRoute asks the external routing service for a driving route.
	// Failures silently fall back to a straight line.
	UseRoadRoute bool
	Color        string
	Weight       int
	Opacity      float64
	DashArray    string
	// FitBounds defaults to true; nil means unset.
	FitBounds       *bool
	OriginIcon      string
	DestinationIcon string
}

// routeLayers groups the rendered path with its two endpoint markers so all
// three can be removed atomically.
type routeLayers struct {
	path              domain.LayerID
	originMarker      domain.LayerID
	destinationMarker domain.LayerID
}

// RoutePlanner draws routes between two points, straight or road-based,
// and tracks the rendered layers for atomic removal. Route endpoint markers
// are deliberately kept out of the generic marker registry: they are only
// removable through ClearRoutes.
type RoutePlanner struct {
	sessionID   string
	renderer    ports.Renderer
	finder      ports.RouteFinder
	publisher   ports.EventPublisher
	initialized func() bool
	log         *slog.Logger
	routes      []routeLayers
}

// NewRoutePlanner creates a planner bound to one session. finder and
// publisher may be nil; road requests then always fall back.
func NewRoutePlanner(
	sessionID string,
	renderer ports.Renderer,
	finder ports.RouteFinder,
	publisher ports.EventPublisher,
	initialized func() bool,
) *RoutePlanner {
	return &RoutePlanner{
		sessionID:   sessionID,
		renderer:    renderer,
		finder:      finder,
		publisher:   publisher,
		initialized: initialized,
		log:         slog.Default().With("component", "planner", "session_id", sessionID),
	}
}

// DrawRoute places origin and destination markers and draws a route between
// them. Returns nil (with a warning) on precondition violations: session not
// initialized or non-finite coordinates. Road-routing failures never surface
// to the caller; they degrade to a straight route.
func (p *RoutePlanner) DrawRoute(ctx context.Context, origin, destination domain.Coordinate, opts RouteOptions) *domain.RouteResult {
	if !p.initialized() {
		p.log.Warn("draw route before session init")
		return nil
	}
	if !geospatial.Valid(origin) || !geospatial.Valid(destination) {
		p.log.Warn("draw route with non-finite coordinates",
			"origin", origin, "destination", destination)
		return nil
	}

	originIcon := opts.OriginIcon
	if originIcon == "" {
		originIcon = defaultOriginIcon
	}
	destIcon := opts.DestinationIcon
	if destIcon == "" {
		destIcon = defaultDestinationIcon
	}

	// Endpoint markers are placed regardless of route outcome.
	originID, err := p.renderer.AddMarker(domain.MarkerSpec{Coordinate: origin, Icon: originIcon})
	if err != nil {
		p.log.Warn("origin marker failed", "error", err)
	}
	destID, err := p.renderer.AddMarker(domain.MarkerSpec{Coordinate: destination, Icon: destIcon})
	if err != nil {
		p.log.Warn("destination marker failed", "error", err)
	}

	points := []domain.Coordinate{origin, destination}
	kind := domain.RouteKindStraight
	distance := geospatial.Distance(origin, destination)
	var duration *float64

	if opts.UseRoadRoute {
		if road := p.findRoadRoute(ctx, origin, destination); road != nil {
			points = road.Geometry
			kind = domain.RouteKindRoad
			distance = road.DistanceMeters
			d := road.DurationSeconds
			duration = &d
		}
	}

	style := domain.PathStyle{
		Color:     opts.Color,
		Weight:    opts.Weight,
		Opacity:   opts.Opacity,
		DashArray: opts.DashArray,
	}
	if style.Color == "" {
		style.Color = defaultRouteColor
	}
	if style.Weight == 0 {
		style.Weight = defaultRouteWeight
	}
	if style.Opacity == 0 {
		style.Opacity = defaultRouteOpacity
	}
	// Straight routes are dashed unless an explicit pattern was supplied.
	if kind == domain.RouteKindStraight && opts.DashArray == "" {
		style.DashArray = defaultStraightDash
	}

	pathID, err := p.renderer.AddPath(points, style)
	if err != nil {
		p.log.Warn("path draw failed", "error", err)
	}

	if opts.FitBounds == nil || *opts.FitBounds {
		if b, ok := geospatial.BoundsOf(points); ok {
			if err := p.renderer.FitBounds(b, fitBoundsPadding); err != nil {
				p.log.Warn("fit bounds failed", "error", err)
			}
		}
	}

	p.routes = append(p.routes, routeLayers{
		path:              pathID,
		originMarker:      originID,
		destinationMarker: destID,
	})
	metrics.RoutesDrawn.WithLabelValues(kind).Inc()

	result := &domain.RouteResult{
		Kind:            kind,
		DistanceMeters:  distance,
		DistanceKm:      fmt.Sprintf("%.2f", distance/1000),
		DurationSeconds: duration,
	}
	if duration != nil {
		m := fmt.Sprintf("%.1f", *duration/60)
		result.DurationMinutes = &m
	}
	return result
}

// findRoadRoute asks the routing service for a driving route. Any failure is
// recorded (log, counter, optional broker event) and nil is returned so the
// caller falls back to a straight line.
func (p *RoutePlanner) findRoadRoute(ctx context.Context, origin, destination domain.Coordinate) *ports.RoadRoute {
	if p.finder == nil {
		p.fallback(ctx, "no_finder", nil)
		return nil
	}

	start := time.Now()
	road, err := p.finder.FindRoute(ctx, origin, destination)
	metrics.RoadRouteDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.fallback(ctx, "service_error", err)
		return nil
	}
	if road == nil || len(road.Geometry) < 2 {
		p.fallback(ctx, "empty_geometry", nil)
		return nil
	}
	return road
}

func (p *RoutePlanner) fallback(ctx context.Context, reason string, err error) {
	p.log.Warn("road routing failed, falling back to straight route",
		"reason", reason, "error", err)
	metrics.RoutingFallbacks.WithLabelValues(reason).Inc()
	if p.publisher != nil {
		_ = p.publisher.PublishRouteFallback(ctx, p.sessionID, reason)
	}
}

// ClearRoutes removes every tracked path and its paired endpoint markers
// from the rendering engine and empties the route-layer list. The generic
// marker and circle registries are untouched.
func (p *RoutePlanner) ClearRoutes() {
	for _, r := range p.routes {
		for _, id := range []domain.LayerID{r.path, r.originMarker, r.destinationMarker} {
			if id == "" {
				continue
			}
			if err := p.renderer.RemoveLayer(id); err != nil {
				p.log.Warn("route layer remove failed", "layer_id", string(id), "error", err)
			}
		}
	}
	p.routes = nil
}

// RouteCount returns the number of tracked route-layer entries.
func (p *RoutePlanner) RouteCount() int {
	return len(p.routes)
}
