package sqlite

import (
	"context"
	"fmt"
	"time"

	"treasure-route-planner/internal/database"
	"treasure-route-planner/internal/models"
)

type coordinateRepository struct {
	store *Store
}

const coordinateColumns = "id, x, y, area_id, display_name, owner_name, collected, kind, anchor_id, created_at, updated_at"

func scanCoordinate(row interface{ Scan(...any) error }) (*models.Coordinate, error) {
	var c models.Coordinate
	var collected int
	var kind string
	if err := row.Scan(&c.ID, &c.X, &c.Y, &c.AreaID, &c.DisplayName, &c.OwnerName,
		&collected, &kind, &c.AnchorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Collected = collected != 0
	c.Kind = models.Kind(kind)
	return &c, nil
}

func (r *coordinateRepository) list(ctx context.Context, deleted bool) ([]*models.Coordinate, error) {
	deletedFlag := 0
	if deleted {
		deletedFlag = 1
	}
	rows, err := r.store.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM coordinates WHERE deleted = ? ORDER BY id", coordinateColumns), deletedFlag)
	if err != nil {
		return nil, fmt.Errorf("querying coordinates: %w", err)
	}
	defer rows.Close()

	var out []*models.Coordinate
	for rows.Next() {
		c, err := scanCoordinate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning coordinate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *coordinateRepository) List(ctx context.Context) ([]*models.Coordinate, error) {
	return r.list(ctx, false)
}

func (r *coordinateRepository) ListDeleted(ctx context.Context) ([]*models.Coordinate, error) {
	return r.list(ctx, true)
}

func (r *coordinateRepository) Create(ctx context.Context, c *models.Coordinate) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	collected := 0
	if c.Collected {
		collected = 1
	}
	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO coordinates (x, y, area_id, display_name, owner_name, collected, kind, anchor_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.X, c.Y, c.AreaID, c.DisplayName, c.OwnerName, collected, string(c.Kind), c.AnchorID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting coordinate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *coordinateRepository) setDeleted(ctx context.Context, id int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}
	res, err := r.store.db.ExecContext(ctx,
		"UPDATE coordinates SET deleted = ?, updated_at = ? WHERE id = ?", flag, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating coordinate %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &database.ErrNotFound{Entity: "coordinate", ID: id}
	}
	return nil
}

func (r *coordinateRepository) MoveToBin(ctx context.Context, id int64) error {
	return r.setDeleted(ctx, id, true)
}

func (r *coordinateRepository) RestoreFromBin(ctx context.Context, id int64) error {
	return r.setDeleted(ctx, id, false)
}

func (r *coordinateRepository) Clear(ctx context.Context) error {
	_, err := r.store.db.ExecContext(ctx, "DELETE FROM coordinates WHERE deleted = 0")
	if err != nil {
		return fmt.Errorf("clearing coordinates: %w", err)
	}
	return nil
}

func (r *coordinateRepository) SetCollected(ctx context.Context, id int64, collected bool) error {
	flag := 0
	if collected {
		flag = 1
	}
	res, err := r.store.db.ExecContext(ctx,
		"UPDATE coordinates SET collected = ?, updated_at = ? WHERE id = ?", flag, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating coordinate %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &database.ErrNotFound{Entity: "coordinate", ID: id}
	}
	return nil
}

func (r *coordinateRepository) UpdateAnnotations(ctx context.Context, id int64, kind models.Kind, anchorID int64) error {
	res, err := r.store.db.ExecContext(ctx,
		"UPDATE coordinates SET kind = ?, anchor_id = ?, updated_at = ? WHERE id = ?",
		string(kind), anchorID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating coordinate %d annotations: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &database.ErrNotFound{Entity: "coordinate", ID: id}
	}
	return nil
}
