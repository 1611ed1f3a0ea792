package routing

import (
	"math"

	"treasure-route-planner/internal/models"
)

// CostModel converts a travel leg into an estimated time in seconds.
// It is pure: no state, no failure modes. Finite inputs always yield a
// finite, non-negative cost.
type CostModel struct {
	// MountDelaySecs is the time lost summoning a mount before riding off.
	MountDelaySecs float64
	// SpeedUnitsPerSec is mounted movement speed in map units per second.
	SpeedUnitsPerSec float64
	// CastDelaySecs is the teleport cast time.
	CastDelaySecs float64
	// LoadDelaySecs is the loading screen after a teleport resolves.
	LoadDelaySecs float64
}

// DefaultCostModel returns the tuned constants used in production.
func DefaultCostModel() CostModel {
	return CostModel{
		MountDelaySecs:   1.0,
		SpeedUnitsPerSec: 1.4,
		CastDelaySecs:    5.0,
		LoadDelaySecs:    6.0,
	}
}

// TimeCost estimates the seconds needed to get from start to end.
// Semantics by endpoint kind:
//   - anchor -> target: cast + load + mount + ride
//   - target -> anchor: ride only (already mounted)
//   - target -> target: mount + ride
//
// Both points must belong to the same area; cross-area distance is undefined
// and is never requested by the planner.
func (m CostModel) TimeCost(start, end models.Point, startIsAnchor, endIsAnchor bool) float64 {
	dist := start.DistanceTo(end)
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		// Malformed input is filtered upstream; degrade to a large finite
		// cost rather than poisoning the search.
		return math.MaxFloat32
	}

	ride := dist / m.SpeedUnitsPerSec

	switch {
	case startIsAnchor:
		return m.CastDelaySecs + m.LoadDelaySecs + m.MountDelaySecs + ride
	case endIsAnchor:
		return ride
	default:
		return m.MountDelaySecs + ride
	}
}
