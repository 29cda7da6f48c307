package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/pkg/geospatial"
)

// OverlayService applies persisted overlay sets (preset markers and zone
// circles) to live sessions.
type OverlayService struct {
	overlays ports.OverlayRepository
}

// NewOverlayService creates a new OverlayService.
func NewOverlayService(overlays ports.OverlayRepository) *OverlayService {
	return &OverlayService{overlays: overlays}
}

// Apply bulk-adds every item of the named set to the session. When
// fitToBounds is true and at least one layer was added, the view is framed
// around the whole set. Returns the number of layers added.
func (s *OverlayService) Apply(ctx context.Context, sess *MapSession, setSlug string, fitToBounds bool) (int, error) {
	items, err := s.overlays.ListBySet(ctx, setSlug)
	if err != nil {
		return 0, fmt.Errorf("list overlay set %q: %w", setSlug, err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	var markers []domain.MarkerSpec
	var circles []domain.CircleSpec
	for _, it := range items {
		c := domain.Coordinate{Lat: it.Lat, Lng: it.Lng}
		switch it.Kind {
		case domain.OverlayKindCircle:
			circles = append(circles, domain.CircleSpec{
				Coordinate:   c,
				RadiusMeters: it.RadiusMeters,
				Color:        it.Color,
				Label:        it.Label,
			})
		default:
			markers = append(markers, domain.MarkerSpec{
				Coordinate: c,
				Icon:       it.Icon,
				Label:      it.Label,
			})
		}
	}

	// Frame the whole set once at the end rather than per kind.
	added := len(sess.AddMarkers(markers, false))
	added += len(sess.AddCircles(circles, false))

	if fitToBounds && added > 0 {
		positions := make([]domain.Coordinate, 0, len(items))
		for _, it := range items {
			positions = append(positions, domain.Coordinate{Lat: it.Lat, Lng: it.Lng})
		}
		if b, ok := geospatial.BoundsOf(positions); ok {
			sess.FitToResolvedLocation(b)
		}
	}

	return added, nil
}

// Sets lists the available overlay set slugs.
func (s *OverlayService) Sets(ctx context.Context) ([]string, error) {
	return s.overlays.ListSets(ctx)
}

// Save upserts overlay items in batch.
func (s *OverlayService) Save(ctx context.Context, items []domain.OverlayItem) error {
	if len(items) == 0 {
		return nil
	}
	for i, it := range items {
		if it.SetSlug == "" {
			return fmt.Errorf("overlay item %d: set slug is required", i)
		}
		if it.Kind != domain.OverlayKindMarker && it.Kind != domain.OverlayKindCircle {
			return fmt.Errorf("overlay item %d: unknown kind %q", i, it.Kind)
		}
		if !geospatial.Valid(domain.Coordinate{Lat: it.Lat, Lng: it.Lng}) {
			return fmt.Errorf("overlay item %d: non-finite coordinates", i)
		}
	}
	return s.overlays.UpsertBatch(ctx, items)
}

// DeleteSet removes a whole overlay set.
func (s *OverlayService) DeleteSet(ctx context.Context, setSlug string) error {
	return s.overlays.DeleteSet(ctx, setSlug)
}
