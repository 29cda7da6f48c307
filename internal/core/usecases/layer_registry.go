package usecases

import (
	"log/slog"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/pkg/geospatial"
	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// fitBoundsPadding is the fixed pixel margin used whenever the view is
// framed around a set of layers.
const fitBoundsPadding = 40

// LayerRegistry tracks every layer of one kind (marker or circle) added
// through the public API. It exclusively owns the handle list; the rendering
// engine owns the visual resources and is only asked to add or remove them.
type LayerRegistry[S any] struct {
	kind        string
	log         *slog.Logger
	initialized func() bool
	create      func(S) (domain.LayerID, error)
	remove      func(domain.LayerID) error
	fit         func(domain.Bounds, int) error
	position    func(S) domain.Coordinate
	ids         []domain.LayerID
}

// NewLayerRegistry creates a registry for one layer kind. create/remove/fit
// are the rendering-engine commands for that kind; position extracts the
// coordinate of a spec for fit-bounds computation.
func NewLayerRegistry[S any](
	kind string,
	initialized func() bool,
	create func(S) (domain.LayerID, error),
	remove func(domain.LayerID) error,
	fit func(domain.Bounds, int) error,
	position func(S) domain.Coordinate,
) *LayerRegistry[S] {
	return &LayerRegistry[S]{
		kind:        kind,
		log:         slog.Default().With("component", "layers", "kind", kind),
		initialized: initialized,
		create:      create,
		remove:      remove,
		fit:         fit,
		position:    position,
	}
}

// Add creates one layer and tracks its handle.
// Returns a zero handle and false when the session is not initialized or the
// rendering engine rejects the layer.
func (r *LayerRegistry[S]) Add(spec S) (domain.LayerID, bool) {
	if !r.initialized() {
		r.log.Warn("layer add before session init")
		return "", false
	}

	id, err := r.create(spec)
	if err != nil {
		r.log.Warn("layer create failed", "error", err)
		return "", false
	}

	r.ids = append(r.ids, id)
	metrics.LayersAdded.WithLabelValues(r.kind).Inc()
	return id, true
}

// AddMany applies Add to each spec, filtering out failures. When fitToBounds
// is true and at least one layer was created, the view is framed around the
// created layers with fixed padding. An empty input performs no view change.
func (r *LayerRegistry[S]) AddMany(specs []S, fitToBounds bool) []domain.LayerID {
	created := make([]domain.LayerID, 0, len(specs))
	positions := make([]domain.Coordinate, 0, len(specs))

	for _, spec := range specs {
		id, ok := r.Add(spec)
		if !ok {
			continue
		}
		created = append(created, id)
		positions = append(positions, r.position(spec))
	}

	if fitToBounds && len(created) > 0 {
		if b, ok := geospatial.BoundsOf(positions); ok {
			if err := r.fit(b, fitBoundsPadding); err != nil {
				r.log.Warn("fit bounds failed", "error", err)
			}
		}
	}

	return created
}

// Clear removes every tracked layer from the rendering engine and empties
// the list. Calling it on an empty registry is a no-op.
func (r *LayerRegistry[S]) Clear() {
	for _, id := range r.ids {
		if err := r.remove(id); err != nil {
			r.log.Warn("layer remove failed", "layer_id", string(id), "error", err)
		}
	}
	r.ids = nil
}

// Len returns the number of currently tracked layers.
func (r *LayerRegistry[S]) Len() int {
	return len(r.ids)
}
