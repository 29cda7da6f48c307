// Package osrm implements ports.RouteFinder against an OSRM-compatible
// routing service.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/pkg/logging"
	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// ErrNoRoute is returned when the service answers without any route.
var ErrNoRoute = errors.New("osrm: no route found")

const maxResponseBytes = 4 << 20 // 4 MB; full geometries can get large

// Client calls the routing service over HTTP with a bounded timeout.
// A stalled upstream therefore degrades into a routing failure instead of
// blocking route completion indefinitely.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    ports.CacheService
	cacheTTL int
	tracer   trace.Tracer
	log      *slog.Logger
}

// NewClient creates a routing client. cache may be nil; cacheTTL is in
// seconds and only used when a cache is present.
func NewClient(baseURL string, timeout time.Duration, cache ports.CacheService, cacheTTL int) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cacheTTL,
		tracer:   otel.Tracer("geopick/osrm"),
		log:      logging.Component("osrm"),
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lng, lat] pairs in path order
		} `json:"geometry"`
	} `json:"routes"`
}

// FindRoute requests a driving route with full geometry, origin first.
func (c *Client) FindRoute(ctx context.Context, origin, destination domain.Coordinate) (*ports.RoadRoute, error) {
	cacheKey := fmt.Sprintf("route:driving:%.6f,%.6f:%.6f,%.6f",
		origin.Lat, origin.Lng, destination.Lat, destination.Lng)

	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var road ports.RoadRoute
			if err := json.Unmarshal(data, &road); err == nil {
				metrics.CacheHits.WithLabelValues("route").Inc()
				return &road, nil
			}
		} else {
			metrics.CacheMisses.WithLabelValues("route").Inc()
		}
	}

	url := fmt.Sprintf("%s/driving/%s,%s;%s,%s?overview=full&geometries=geojson",
		c.baseURL,
		coord(origin.Lng), coord(origin.Lat),
		coord(destination.Lng), coord(destination.Lat))

	ctx, span := c.tracer.Start(ctx, "osrm.FindRoute",
		trace.WithAttributes(attribute.String("http.url", url)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var parsed routeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("osrm decode: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := parsed.Routes[0]
	geometry := make([]domain.Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			return nil, fmt.Errorf("osrm decode: malformed coordinate pair")
		}
		geometry = append(geometry, domain.Coordinate{Lat: pair[1], Lng: pair[0]})
	}

	road := &ports.RoadRoute{
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		Geometry:        geometry,
	}

	if c.cache != nil {
		if data, err := json.Marshal(road); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.cacheTTL)
		}
	}

	return road, nil
}

// coord formats a coordinate component without trailing zeros.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
