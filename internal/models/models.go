package models

import (
	"fmt"
	"math"
	"time"
)

// Kind discriminates route entries: real targets versus inserted teleport markers.
type Kind string

const (
	KindTarget      Kind = "target"
	KindTeleportHop Kind = "teleport_hop"
)

// Point is a position in map space. Map coordinates are nominally 0-100 per area.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the planar Euclidean distance to q.
// Points from different areas are not comparable; callers compare within one area only.
func (p Point) DistanceTo(q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Coordinate is a point of interest reported inside one area.
type Coordinate struct {
	ID          int64     `json:"id"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	AreaID      string    `json:"area_id"`
	DisplayName string    `json:"display_name,omitempty"`
	OwnerName   string    `json:"owner_name,omitempty"`
	Collected   bool      `json:"collected"`
	Kind        Kind      `json:"kind"`
	AnchorID    int64     `json:"anchor_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Point returns the coordinate's position.
func (c *Coordinate) Point() Point {
	return Point{X: c.X, Y: c.Y}
}

// Validate checks the invariants the routing engine relies on.
// Routing never sees a coordinate that fails these checks.
func (c *Coordinate) Validate() error {
	if c.AreaID == "" {
		return &ErrInvalidCoordinate{Coordinate: c, Reason: "empty area id"}
	}
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
		return &ErrInvalidCoordinate{Coordinate: c, Reason: "non-finite position"}
	}
	return nil
}

// ErrInvalidCoordinate is returned when a coordinate fails validation at an
// input boundary. The optimizer itself never throws; invalid entries are
// filtered before it runs.
type ErrInvalidCoordinate struct {
	Coordinate *Coordinate
	Reason     string
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate %q in area %q: %s", e.Coordinate.DisplayName, e.Coordinate.AreaID, e.Reason)
}

// Anchor is a named fast-travel endpoint inside one area. TravelCost is in
// currency units and may be stale until refreshed from the cost provider.
type Anchor struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	AreaID     string  `json:"area_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	TravelCost int64   `json:"travel_cost"`
}

// Point returns the anchor's position.
func (a *Anchor) Point() Point {
	return Point{X: a.X, Y: a.Y}
}
