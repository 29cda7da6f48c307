package ports

import (
	"context"

	"github.com/samirrijal/geopick/internal/core/domain"
)

// RoadRoute is a driving route returned by an external routing service.
type RoadRoute struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []domain.Coordinate // path order, origin first
}

// RouteFinder computes driving routes via an external routing service.
// Any failure (no route, network error, malformed response) is returned as an
// error; the caller decides how to degrade.
type RouteFinder interface {
	FindRoute(ctx context.Context, origin, destination domain.Coordinate) (*RoadRoute, error)
}
