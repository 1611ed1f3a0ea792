package fasttravel

import "treasure-route-planner/internal/models"

// DefaultAnchors is the shipped anchor catalog, used to seed an empty store.
// Positions are map-space (0-100); base costs are currency units and get
// refreshed from the fee source before every planning run.
func DefaultAnchors() []*models.Anchor {
	return []*models.Anchor{
		{Name: "Harbor Aetherstone", AreaID: "coastal-reach", X: 12, Y: 48, TravelCost: 120},
		{Name: "Cliffside Aetherstone", AreaID: "coastal-reach", X: 71, Y: 22, TravelCost: 160},
		{Name: "Crossroads Aetherstone", AreaID: "amber-plains", X: 50, Y: 50, TravelCost: 110},
		{Name: "Mill Aetherstone", AreaID: "amber-plains", X: 18, Y: 77, TravelCost: 140},
		{Name: "Summit Aetherstone", AreaID: "frost-highlands", X: 44, Y: 15, TravelCost: 220},
		{Name: "Grove Aetherstone", AreaID: "verdant-basin", X: 63, Y: 58, TravelCost: 180},
	}
}
