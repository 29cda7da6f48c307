package domain

// LayerID is an opaque handle to a layer owned by the rendering engine.
type LayerID string

// MapConfig holds the view and tile settings for a map session.
// Lat/Lng/Zoom are updated in place whenever the session is (re)initialized.
type MapConfig struct {
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Zoom          int     `json:"zoom"`
	ContainerID   string  `json:"container_id"`
	TileSourceURL string  `json:"tile_source_url"`
	Attribution   string  `json:"attribution"`
	SelectorIcon  string  `json:"selector_icon"`
}

// Center returns the configured view center.
func (c MapConfig) Center() Coordinate {
	return Coordinate{Lat: c.Lat, Lng: c.Lng}
}

// MarkerSpec describes a marker to place on the map.
type MarkerSpec struct {
	Coordinate
	Icon  string `json:"icon,omitempty"`
	Label string `json:"label,omitempty"`
}

// CircleSpec describes a zone circle to place on the map.
type CircleSpec struct {
	Coordinate
	RadiusMeters float64 `json:"radius_meters"`
	Color        string  `json:"color,omitempty"`
	FillOpacity  float64 `json:"fill_opacity,omitempty"`
	Label        string  `json:"label,omitempty"`
}

// PathStyle controls how a route path is stroked.
type PathStyle struct {
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	Opacity   float64 `json:"opacity"`
	DashArray string  `json:"dash_array,omitempty"`
}

// ExternalViewURLs are deep links to third-party map services for a point.
type ExternalViewURLs struct {
	GoogleMaps    string `json:"google_maps"`
	OpenStreetMap string `json:"openstreetmap"`
}

// SelectedPoint is the coordinate currently picked by the selector, with
// presentation fields derived at read time.
type SelectedPoint struct {
	Coordinate
	Timestamp        string           `json:"timestamp"` // RFC 3339, generated at read time
	Formatted        string           `json:"formatted"`
	ExternalViewURLs ExternalViewURLs `json:"external_view_urls"`
}

// Route kinds.
const (
	RouteKindStraight = "straight"
	RouteKindRoad     = "road"
)

// RouteResult is the outcome of a single DrawRoute call.
type RouteResult struct {
	Kind            string   `json:"kind"` // "straight" or "road"
	DistanceMeters  float64  `json:"distance_meters"`
	DistanceKm      string   `json:"distance_km"` // 2-decimal string
	DurationSeconds *float64 `json:"duration_seconds"`
	DurationMinutes *string  `json:"duration_minutes"` // 1-decimal string, nil for straight routes
}

// OverlayItem is one preset marker or circle belonging to a named overlay set.
type OverlayItem struct {
	SetSlug      string  `json:"set_slug"`
	Kind         string  `json:"kind"` // "marker" or "circle"
	Label        string  `json:"label,omitempty"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Icon         string  `json:"icon,omitempty"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
	Color        string  `json:"color,omitempty"`
}

// Overlay item kinds.
const (
	OverlayKindMarker = "marker"
	OverlayKindCircle = "circle"
)
