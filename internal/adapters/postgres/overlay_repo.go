package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geopick/internal/core/domain"
)

// OverlayRepo implements ports.OverlayRepository backed by the
// overlay_items table. Items are grouped by set_slug; one set is the unit
// a session loads onto its map.
type OverlayRepo struct {
	db *DB
}

func NewOverlayRepo(db *DB) *OverlayRepo {
	return &OverlayRepo{db: db}
}

// ListBySet returns all items in a set, stable order.
func (r *OverlayRepo) ListBySet(ctx context.Context, setSlug string) ([]domain.OverlayItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT set_slug, kind, label, lat, lng, icon, radius_m, color
		FROM overlay_items
		WHERE set_slug = $1
		ORDER BY id`, setSlug)
	if err != nil {
		return nil, fmt.Errorf("list overlay set %q: %w", setSlug, err)
	}
	defer rows.Close()

	var items []domain.OverlayItem
	for rows.Next() {
		var it domain.OverlayItem
		if err := rows.Scan(&it.SetSlug, &it.Kind, &it.Label, &it.Lat, &it.Lng,
			&it.Icon, &it.RadiusMeters, &it.Color); err != nil {
			return nil, fmt.Errorf("scan overlay item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListSets returns the distinct set slugs.
func (r *OverlayRepo) ListSets(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT DISTINCT set_slug FROM overlay_items ORDER BY set_slug`)
	if err != nil {
		return nil, fmt.Errorf("list overlay sets: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan set slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// UpsertBatch writes items in one round trip. Items are keyed on
// (set_slug, kind, lat, lng, label); re-saving a set updates presentation
// fields instead of duplicating rows.
func (r *OverlayRepo) UpsertBatch(ctx context.Context, items []domain.OverlayItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO overlay_items (set_slug, kind, label, lat, lng, icon, radius_m, color)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (set_slug, kind, lat, lng, label)
			DO UPDATE SET icon = EXCLUDED.icon, radius_m = EXCLUDED.radius_m, color = EXCLUDED.color`,
			it.SetSlug, it.Kind, it.Label, it.Lat, it.Lng, it.Icon, it.RadiusMeters, it.Color)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert overlay items: %w", err)
		}
	}
	return nil
}

// DeleteSet removes every item in a set.
func (r *OverlayRepo) DeleteSet(ctx context.Context, setSlug string) error {
	if _, err := r.db.Pool.Exec(ctx,
		`DELETE FROM overlay_items WHERE set_slug = $1`, setSlug); err != nil {
		return fmt.Errorf("delete overlay set %q: %w", setSlug, err)
	}
	return nil
}
