package ports

import (
	"context"

	"github.com/samirrijal/geopick/internal/core/domain"
)

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes session events to a message broker. Every method
// is best-effort; a nil publisher is tolerated throughout the core.
type EventPublisher interface {
	// PublishSelectionConfirmed emits the point a user confirmed in a session.
	PublishSelectionConfirmed(ctx context.Context, sessionID string, point domain.SelectedPoint) error
	// PublishRouteFallback emits one event per road-routing failure that was
	// silently downgraded to a straight route.
	PublishRouteFallback(ctx context.Context, sessionID string, reason string) error
}
