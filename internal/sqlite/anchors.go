package sqlite

import (
	"context"
	"fmt"

	"treasure-route-planner/internal/database"
	"treasure-route-planner/internal/models"
)

type anchorRepository struct {
	store *Store
}

func (r *anchorRepository) queryAnchors(ctx context.Context, query string, args ...any) ([]*models.Anchor, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying anchors: %w", err)
	}
	defer rows.Close()

	var out []*models.Anchor
	for rows.Next() {
		var a models.Anchor
		if err := rows.Scan(&a.ID, &a.Name, &a.AreaID, &a.X, &a.Y, &a.TravelCost); err != nil {
			return nil, fmt.Errorf("scanning anchor: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *anchorRepository) ListAll(ctx context.Context) ([]*models.Anchor, error) {
	return r.queryAnchors(ctx,
		"SELECT id, name, area_id, x, y, travel_cost FROM anchors ORDER BY area_id, id")
}

func (r *anchorRepository) ListByArea(ctx context.Context, areaID string) ([]*models.Anchor, error) {
	return r.queryAnchors(ctx,
		"SELECT id, name, area_id, x, y, travel_cost FROM anchors WHERE area_id = ? ORDER BY id", areaID)
}

func (r *anchorRepository) Upsert(ctx context.Context, a *models.Anchor) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO anchors (name, area_id, x, y, travel_cost) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(area_id, name) DO UPDATE SET x = excluded.x, y = excluded.y, travel_cost = excluded.travel_cost`,
		a.Name, a.AreaID, a.X, a.Y, a.TravelCost)
	if err != nil {
		return fmt.Errorf("upserting anchor %q: %w", a.Name, err)
	}
	return r.store.db.QueryRowContext(ctx,
		"SELECT id FROM anchors WHERE area_id = ? AND name = ?", a.AreaID, a.Name).Scan(&a.ID)
}

func (r *anchorRepository) UpdateTravelCost(ctx context.Context, id int64, cost int64) error {
	res, err := r.store.db.ExecContext(ctx,
		"UPDATE anchors SET travel_cost = ? WHERE id = ?", cost, id)
	if err != nil {
		return fmt.Errorf("updating anchor %d cost: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &database.ErrNotFound{Entity: "anchor", ID: id}
	}
	return nil
}
