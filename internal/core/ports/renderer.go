package ports

import "github.com/samirrijal/geopick/internal/core/domain"

// Renderer is the injected rendering-engine capability. The core only issues
// add/remove layer commands through it; the engine owns the visual resources.
// Implementations must tolerate being driven before a client surface is
// attached (commands may be queued).
type Renderer interface {
	// CreateMap binds a map surface to the configured container and view.
	CreateMap(cfg domain.MapConfig) error
	// SetView re-centers the map. A negative zoom preserves the current zoom.
	SetView(center domain.Coordinate, zoom int) error
	AddTileLayer(url, attribution string) error

	AddMarker(spec domain.MarkerSpec) (domain.LayerID, error)
	AddCircle(spec domain.CircleSpec) (domain.LayerID, error)
	AddPath(points []domain.Coordinate, style domain.PathStyle) (domain.LayerID, error)
	RemoveLayer(id domain.LayerID) error

	// FitBounds frames the given bounding box with padding in pixels.
	FitBounds(b domain.Bounds, padding int) error

	BindPopup(id domain.LayerID, html string) error
	OpenPopup(id domain.LayerID) error

	// Notice surfaces a blocking, user-facing message on the map surface.
	Notice(message string) error

	// OnReady registers the handler invoked once the engine reports readiness.
	OnReady(fn func())
	// OnClick registers the handler for click events on the map surface.
	OnClick(fn func(c domain.Coordinate))
	// OnConfirm registers the handler for the delegated confirm trigger.
	OnConfirm(fn func())
}
