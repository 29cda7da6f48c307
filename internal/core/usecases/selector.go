package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/pkg/geospatial"
	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// SelectorState is the coordinate-selection workflow state.
type SelectorState string

// Selector states. Confirmed is not terminal: any later click returns the
// workflow to PointPending.
const (
	SelectorDisabled     SelectorState = "disabled"
	SelectorEnabled      SelectorState = "enabled"
	SelectorPointPending SelectorState = "pointPending"
	SelectorConfirmed    SelectorState = "confirmed"
)

const confirmNoticeMessage = "Select a point on the map before confirming."

// Selector is the click-driven coordinate-selection workflow. At most one
// selector marker exists at a time; placing a new point removes the previous
// marker. The confirmation callback is a single-subscriber handler: Enable
// replaces it, Disable unsets it.
//
// Selector guards its own state because renderer events (click, ready,
// confirm) arrive from the transport goroutine, not through session methods.
type Selector struct {
	renderer    ports.Renderer
	publisher   ports.EventPublisher
	sessionID   string
	initialized func() bool
	center      func() domain.Coordinate
	defaultIcon string
	log         *slog.Logger

	mu       sync.Mutex
	state    SelectorState
	onSelect func(domain.SelectedPoint)
	point    *domain.Coordinate
	markerID domain.LayerID
}

// NewSelector creates a disabled selector bound to one session.
func NewSelector(
	sessionID string,
	renderer ports.Renderer,
	publisher ports.EventPublisher,
	initialized func() bool,
	center func() domain.Coordinate,
	defaultIcon string,
) *Selector {
	return &Selector{
		renderer:    renderer,
		publisher:   publisher,
		sessionID:   sessionID,
		initialized: initialized,
		center:      center,
		defaultIcon: defaultIcon,
		log:         slog.Default().With("component", "selector", "session_id", sessionID),
		state:       SelectorDisabled,
	}
}

// Enable transitions disabled → enabled, registers the confirmation callback
// (replacing any previous subscriber), hooks map clicks and the delegated
// confirm trigger, and requests a default point at the session center once
// the rendering engine reports readiness.
func (s *Selector) Enable(onSelect func(domain.SelectedPoint)) bool {
	if !s.initialized() {
		s.log.Warn("selector enable before session init")
		return false
	}

	s.mu.Lock()
	if s.state == SelectorDisabled {
		s.state = SelectorEnabled
	}
	s.onSelect = onSelect
	s.mu.Unlock()

	s.renderer.OnClick(func(c domain.Coordinate) {
		s.PlacePoint(geospatial.Round8(c.Lat), geospatial.Round8(c.Lng), "")
	})
	s.renderer.OnConfirm(func() {
		s.Confirm()
	})
	s.renderer.OnReady(func() {
		s.mu.Lock()
		hasPoint := s.point != nil
		enabled := s.state != SelectorDisabled
		s.mu.Unlock()
		if enabled && !hasPoint {
			c := s.center()
			s.PlacePoint(c.Lat, c.Lng, "")
		}
	})

	return true
}

// Disable clears the point, unsets the callback, and returns to disabled.
func (s *Selector) Disable() {
	s.ClearPoint()
	s.mu.Lock()
	s.onSelect = nil
	s.state = SelectorDisabled
	s.mu.Unlock()
}

// PlacePoint stores a new selected coordinate and places its marker with an
// informational popup, removing any previous selector marker first.
// Fails silently (with a warning) unless the selector is enabled.
func (s *Selector) PlacePoint(lat, lng float64, icon string) bool {
	s.mu.Lock()
	if s.state == SelectorDisabled {
		s.mu.Unlock()
		s.log.Warn("place point while selector disabled")
		return false
	}

	// Remove-before-replace: at most one selector marker exists.
	if s.markerID != "" {
		if err := s.renderer.RemoveLayer(s.markerID); err != nil {
			s.log.Warn("selector marker remove failed", "error", err)
		}
		s.markerID = ""
	}

	if icon == "" {
		icon = s.defaultIcon
	}
	point := domain.Coordinate{Lat: lat, Lng: lng}
	s.point = &point

	id, err := s.renderer.AddMarker(domain.MarkerSpec{Coordinate: point, Icon: icon})
	if err != nil {
		s.log.Warn("selector marker create failed", "error", err)
	} else {
		s.markerID = id
	}
	s.state = SelectorPointPending
	markerID := s.markerID
	s.mu.Unlock()

	if markerID != "" {
		if err := s.renderer.BindPopup(markerID, popupHTML(point)); err != nil {
			s.log.Warn("popup bind failed", "error", err)
		}
		if err := s.renderer.OpenPopup(markerID); err != nil {
			s.log.Warn("popup open failed", "error", err)
		}
	}
	return true
}

// ClearPoint removes the selector marker and the stored point.
// No-op when nothing is selected.
func (s *Selector) ClearPoint() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.markerID != "" {
		if err := s.renderer.RemoveLayer(s.markerID); err != nil {
			s.log.Warn("selector marker remove failed", "error", err)
		}
		s.markerID = ""
	}
	s.point = nil
	if s.state != SelectorDisabled {
		s.state = SelectorEnabled
	}
}

// SelectedPoint returns the current selection with timestamp, formatted text
// and external view URLs derived at read time, or nil when nothing is
// selected. Two calls separated in time yield different timestamps for the
// same coordinate.
func (s *Selector) SelectedPoint() *domain.SelectedPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.point == nil {
		return nil
	}
	sp := derivePoint(*s.point)
	return &sp
}

// Confirm invokes the registered callback with the derived point and returns
// it. With nothing selected it surfaces a blocking user-facing notice and
// returns nil without invoking the callback. The selection persists until
// explicitly cleared or replaced.
func (s *Selector) Confirm() *domain.SelectedPoint {
	s.mu.Lock()
	if s.point == nil {
		s.mu.Unlock()
		if err := s.renderer.Notice(confirmNoticeMessage); err != nil {
			s.log.Warn("notice failed", "error", err)
		}
		return nil
	}
	sp := derivePoint(*s.point)
	s.state = SelectorConfirmed
	onSelect := s.onSelect
	s.mu.Unlock()

	if onSelect != nil {
		onSelect(sp)
	}
	metrics.SelectionsConfirmed.Inc()
	if s.publisher != nil {
		_ = s.publisher.PublishSelectionConfirmed(context.Background(), s.sessionID, sp)
	}
	return &sp
}

func (s *Selector) setDefaultIcon(icon string) {
	s.mu.Lock()
	s.defaultIcon = icon
	s.mu.Unlock()
}

// State returns the current workflow state.
func (s *Selector) State() SelectorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func derivePoint(c domain.Coordinate) domain.SelectedPoint {
	return domain.SelectedPoint{
		Coordinate: c,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Formatted:  fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lng),
		ExternalViewURLs: domain.ExternalViewURLs{
			GoogleMaps: fmt.Sprintf("https://www.google.com/maps?q=%.8f,%.8f", c.Lat, c.Lng),
			OpenStreetMap: fmt.Sprintf(
				"https://www.openstreetmap.org/?mlat=%.8f&mlon=%.8f#map=18/%.8f/%.8f",
				c.Lat, c.Lng, c.Lat, c.Lng),
		},
	}
}

// popupHTML renders the selector popup: coordinates, external map deep links
// and the delegated confirm trigger.
func popupHTML(c domain.Coordinate) string {
	sp := derivePoint(c)
	return fmt.Sprintf(
		`<div class="geopick-popup"><strong>%s</strong><br>`+
			`<a href="%s" target="_blank" rel="noopener">Google Maps</a> &middot; `+
			`<a href="%s" target="_blank" rel="noopener">OpenStreetMap</a><br>`+
			`<button type="button" data-geopick-confirm>Confirm location</button></div>`,
		sp.Formatted, sp.ExternalViewURLs.GoogleMaps, sp.ExternalViewURLs.OpenStreetMap,
	)
}
