package ports

import (
	"context"

	"github.com/samirrijal/geopick/internal/core/domain"
)

// OverlayRepository persists named preset overlay sets (markers and zone
// circles) that can be bulk-applied to a session.
type OverlayRepository interface {
	ListBySet(ctx context.Context, setSlug string) ([]domain.OverlayItem, error)
	ListSets(ctx context.Context) ([]string, error)
	UpsertBatch(ctx context.Context, items []domain.OverlayItem) error
	DeleteSet(ctx context.Context, setSlug string) error
}
