package database

import (
	"context"
	"fmt"

	"treasure-route-planner/internal/models"
)

// CoordinateRepository persists the pending list and the deleted bin.
// Deletion is soft: coordinates move to the bin and can be restored.
type CoordinateRepository interface {
	List(ctx context.Context) ([]*models.Coordinate, error)
	ListDeleted(ctx context.Context) ([]*models.Coordinate, error)
	Create(ctx context.Context, c *models.Coordinate) error
	MoveToBin(ctx context.Context, id int64) error
	RestoreFromBin(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	SetCollected(ctx context.Context, id int64, collected bool) error
	UpdateAnnotations(ctx context.Context, id int64, kind models.Kind, anchorID int64) error
}

// AnchorRepository persists the fast-travel anchor catalog.
type AnchorRepository interface {
	ListAll(ctx context.Context) ([]*models.Anchor, error)
	ListByArea(ctx context.Context, areaID string) ([]*models.Anchor, error)
	Upsert(ctx context.Context, a *models.Anchor) error
	UpdateTravelCost(ctx context.Context, id int64, cost int64) error
}

// DataStore bundles the repositories behind one handle.
type DataStore interface {
	Coordinates() CoordinateRepository
	Anchors() AnchorRepository
	Close() error
}

// ErrNotFound is returned when a lookup matches no row.
type ErrNotFound struct {
	Entity string
	ID     int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
