package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geopick",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Map-session metrics
	RoutesDrawn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "routing",
		Name:      "routes_drawn_total",
		Help:      "Total routes drawn, by kind (straight or road)",
	}, []string{"kind"})

	// RoutingFallbacks is the observability hook for silent road-to-straight
	// downgrades: the failure never reaches the caller, only this counter
	// (and the optional broker event).
	RoutingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "routing",
		Name:      "fallbacks_total",
		Help:      "Total road-routing failures downgraded to straight routes",
	}, []string{"reason"})

	RoadRouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geopick",
		Subsystem: "routing",
		Name:      "road_request_duration_seconds",
		Help:      "Duration of routing-service requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	SelectionsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "selector",
		Name:      "confirmed_total",
		Help:      "Total selector points confirmed by users",
	})

	LayersAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "layers",
		Name:      "added_total",
		Help:      "Total layers added through the registries",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geopick",
		Subsystem: "session",
		Name:      "active",
		Help:      "Current number of live map sessions",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geopick",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of attached renderer surfaces",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
