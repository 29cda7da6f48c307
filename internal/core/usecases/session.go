package usecases

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
)

// DefaultMapConfig returns the immutable session defaults; caller overrides
// are merged over these at creation and initialization.
func DefaultMapConfig() domain.MapConfig {
	return domain.MapConfig{
		Lat:           43.2630,
		Lng:           -2.9350,
		Zoom:          13,
		ContainerID:   "map",
		TileSourceURL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution:   "&copy; OpenStreetMap contributors",
		SelectorIcon:  "pin",
	}
}

// InitParams are caller overrides for session initialization. Values are
// parsed as numbers; invalid input falls back to the prior config value.
type InitParams struct {
	Lat         string `json:"lat"`
	Lng         string `json:"lng"`
	Zoom        string `json:"zoom"`
	ContainerID string `json:"container_id"`
}

// MapSession owns one rendering-engine map instance (created at most once),
// the map configuration, the marker and circle registries, the route planner
// and the selection workflow. Configuration and setup methods return the
// session itself for chaining; accessors return their data.
//
// Every public operation other than Init is guarded: before initialization it
// logs a warning and degrades to a no-op or nil return.
type MapSession struct {
	id        string
	renderer  ports.Renderer
	publisher ports.EventPublisher
	log       *slog.Logger

	mu          sync.Mutex
	cfg         domain.MapConfig
	mapCreated  bool
	initialized atomic.Bool

	markers  *LayerRegistry[domain.MarkerSpec]
	circles  *LayerRegistry[domain.CircleSpec]
	planner  *RoutePlanner
	selector *Selector
}

// NewMapSession creates an uninitialized session. finder and publisher may
// be nil; road routing then always falls back and no events are emitted.
func NewMapSession(
	id string,
	renderer ports.Renderer,
	finder ports.RouteFinder,
	publisher ports.EventPublisher,
	cfg domain.MapConfig,
) *MapSession {
	s := &MapSession{
		id:        id,
		renderer:  renderer,
		publisher: publisher,
		cfg:       cfg,
		log:       slog.Default().With("component", "session", "session_id", id),
	}

	initialized := s.initialized.Load
	s.markers = NewLayerRegistry("marker", initialized,
		renderer.AddMarker, renderer.RemoveLayer, renderer.FitBounds,
		func(m domain.MarkerSpec) domain.Coordinate { return m.Coordinate })
	s.circles = NewLayerRegistry("circle", initialized,
		renderer.AddCircle, renderer.RemoveLayer, renderer.FitBounds,
		func(c domain.CircleSpec) domain.Coordinate { return c.Coordinate })
	s.planner = NewRoutePlanner(id, renderer, finder, publisher, initialized)
	s.selector = NewSelector(id, renderer, publisher, initialized, s.center, cfg.SelectorIcon)

	return s
}

// ID returns the session identifier.
func (s *MapSession) ID() string { return s.id }

// Initialized reports whether Init has completed.
func (s *MapSession) Initialized() bool { return s.initialized.Load() }

// Config returns a copy of the current map configuration.
func (s *MapSession) Config() domain.MapConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *MapSession) center() domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Center()
}

// --- Fluent configuration ---

// SetCenter overrides the configured view center.
func (s *MapSession) SetCenter(lat, lng float64) *MapSession {
	s.mu.Lock()
	s.cfg.Lat, s.cfg.Lng = lat, lng
	s.mu.Unlock()
	return s
}

// SetZoom overrides the configured zoom level.
func (s *MapSession) SetZoom(zoom int) *MapSession {
	s.mu.Lock()
	s.cfg.Zoom = zoom
	s.mu.Unlock()
	return s
}

// SetContainer overrides the rendering target element id. The hosting window
// guarantees the element is present before Init is attempted.
func (s *MapSession) SetContainer(id string) *MapSession {
	s.mu.Lock()
	s.cfg.ContainerID = id
	s.mu.Unlock()
	return s
}

// SetTileSource overrides the tile source URL and its attribution text.
func (s *MapSession) SetTileSource(url, attribution string) *MapSession {
	s.mu.Lock()
	s.cfg.TileSourceURL = url
	s.cfg.Attribution = attribution
	s.mu.Unlock()
	return s
}

// SetSelectorIcon overrides the default selector marker icon.
func (s *MapSession) SetSelectorIcon(icon string) *MapSession {
	s.mu.Lock()
	s.cfg.SelectorIcon = icon
	s.mu.Unlock()
	s.selector.setDefaultIcon(icon)
	return s
}

// --- Lifecycle ---

// Init merges the given overrides into the configuration, creates the
// rendering surface (at most once per session) centered at the resolved view
// and attaches the configured tile source. Re-initializing an already
// created session only updates the view.
func (s *MapSession) Init(params InitParams) *MapSession {
	s.mu.Lock()

	if v, err := strconv.ParseFloat(params.Lat, 64); err == nil {
		s.cfg.Lat = v
	} else if params.Lat != "" {
		s.log.Warn("invalid lat, keeping prior value", "input", params.Lat)
	}
	if v, err := strconv.ParseFloat(params.Lng, 64); err == nil {
		s.cfg.Lng = v
	} else if params.Lng != "" {
		s.log.Warn("invalid lng, keeping prior value", "input", params.Lng)
	}
	if v, err := strconv.Atoi(params.Zoom); err == nil {
		s.cfg.Zoom = v
	} else if params.Zoom != "" {
		s.log.Warn("invalid zoom, keeping prior value", "input", params.Zoom)
	}
	if params.ContainerID != "" {
		s.cfg.ContainerID = params.ContainerID
	}

	cfg := s.cfg
	created := s.mapCreated
	s.mapCreated = true
	s.mu.Unlock()

	if !created {
		if err := s.renderer.CreateMap(cfg); err != nil {
			s.log.Warn("map create failed", "error", err)
		}
		if err := s.renderer.AddTileLayer(cfg.TileSourceURL, cfg.Attribution); err != nil {
			s.log.Warn("tile layer failed", "error", err)
		}
	} else {
		if err := s.renderer.SetView(cfg.Center(), cfg.Zoom); err != nil {
			s.log.Warn("set view failed", "error", err)
		}
	}

	s.initialized.Store(true)
	return s
}

// Recenter re-centers the view without reinitializing. An omitted zoom
// preserves the current zoom level.
func (s *MapSession) Recenter(lat, lng float64, zoom ...int) *MapSession {
	if !s.initialized.Load() {
		s.log.Warn("recenter before session init")
		return s
	}

	s.mu.Lock()
	s.cfg.Lat, s.cfg.Lng = lat, lng
	z := -1
	if len(zoom) > 0 {
		z = zoom[0]
		s.cfg.Zoom = z
	}
	center := s.cfg.Center()
	s.mu.Unlock()

	if err := s.renderer.SetView(center, z); err != nil {
		s.log.Warn("set view failed", "error", err)
	}
	return s
}

// FitToResolvedLocation frames a bounding box reported by the external
// geocoding control's "location resolved" event.
func (s *MapSession) FitToResolvedLocation(b domain.Bounds) *MapSession {
	if !s.initialized.Load() {
		s.log.Warn("fit before session init")
		return s
	}
	if err := s.renderer.FitBounds(b, fitBoundsPadding); err != nil {
		s.log.Warn("fit bounds failed", "error", err)
	}
	return s
}

// --- Markers and circles ---

// AddMarker places one marker and returns its handle.
func (s *MapSession) AddMarker(spec domain.MarkerSpec) (domain.LayerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers.Add(spec)
}

// AddMarkers places markers in bulk, optionally framing them.
func (s *MapSession) AddMarkers(specs []domain.MarkerSpec, fitToBounds bool) []domain.LayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers.AddMany(specs, fitToBounds)
}

// ClearMarkers removes every registry-tracked marker.
func (s *MapSession) ClearMarkers() *MapSession {
	s.mu.Lock()
	s.markers.Clear()
	s.mu.Unlock()
	return s
}

// MarkerCount returns the number of tracked markers.
func (s *MapSession) MarkerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers.Len()
}

// AddCircle places one zone circle and returns its handle.
func (s *MapSession) AddCircle(spec domain.CircleSpec) (domain.LayerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circles.Add(spec)
}

// AddCircles places zone circles in bulk, optionally framing them.
func (s *MapSession) AddCircles(specs []domain.CircleSpec, fitToBounds bool) []domain.LayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circles.AddMany(specs, fitToBounds)
}

// ClearCircles removes every registry-tracked circle.
func (s *MapSession) ClearCircles() *MapSession {
	s.mu.Lock()
	s.circles.Clear()
	s.mu.Unlock()
	return s
}

// CircleCount returns the number of tracked circles.
func (s *MapSession) CircleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circles.Len()
}

// --- Routes ---

// DrawRoute draws a route between two points. See RoutePlanner.DrawRoute.
func (s *MapSession) DrawRoute(ctx context.Context, origin, destination domain.Coordinate, opts RouteOptions) *domain.RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planner.DrawRoute(ctx, origin, destination, opts)
}

// ClearRoutes removes every route path with its endpoint markers.
func (s *MapSession) ClearRoutes() *MapSession {
	s.mu.Lock()
	s.planner.ClearRoutes()
	s.mu.Unlock()
	return s
}

// RouteCount returns the number of tracked route-layer entries.
func (s *MapSession) RouteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planner.RouteCount()
}

// --- Selector ---

// EnableSelector starts the coordinate-selection workflow and registers the
// confirmation callback, replacing any previous subscriber.
func (s *MapSession) EnableSelector(onSelect func(domain.SelectedPoint)) *MapSession {
	s.selector.Enable(onSelect)
	return s
}

// DisableSelector stops the workflow and unsets the callback.
func (s *MapSession) DisableSelector() *MapSession {
	s.selector.Disable()
	return s
}

// PlacePoint selects a coordinate programmatically.
func (s *MapSession) PlacePoint(lat, lng float64, icon string) *MapSession {
	s.selector.PlacePoint(lat, lng, icon)
	return s
}

// ClearPoint removes the current selection, if any.
func (s *MapSession) ClearPoint() *MapSession {
	s.selector.ClearPoint()
	return s
}

// SelectedPoint returns the current selection or nil.
func (s *MapSession) SelectedPoint() *domain.SelectedPoint {
	return s.selector.SelectedPoint()
}

// ConfirmSelection confirms the current selection. See Selector.Confirm.
func (s *MapSession) ConfirmSelection() *domain.SelectedPoint {
	return s.selector.Confirm()
}

// SelectorState returns the current selection-workflow state.
func (s *MapSession) SelectorState() SelectorState {
	return s.selector.State()
}
