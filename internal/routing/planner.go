package routing

import (
	"context"
	"log"
	"math"

	"treasure-route-planner/internal/models"
)

// DefaultLocalityThreshold is the map distance below which walking to an
// in-area target beats re-anchoring through a teleport.
const DefaultLocalityThreshold = 25.0

// Planner stitches per-area optimized sub-routes into one global route. It
// is synchronous and single-threaded: one Plan call at a time, collaborator
// values resolved up front, never mid-algorithm callbacks into the host.
type Planner struct {
	Optimizer         *Optimizer
	Anchors           AnchorProvider
	Location          LocationProvider
	Weights           Weights
	LocalityThreshold float64
}

// NewPlanner wires a planner with default tuning.
func NewPlanner(optimizer *Optimizer, anchors AnchorProvider, location LocationProvider) *Planner {
	return &Planner{
		Optimizer:         optimizer,
		Anchors:           anchors,
		Location:          location,
		Weights:           DefaultWeights(),
		LocalityThreshold: DefaultLocalityThreshold,
	}
}

// areaGroup tracks one area's pending targets in insertion order.
type areaGroup struct {
	areaID  string
	targets []*models.Coordinate
}

// Plan computes the global route over coords. Uncollected targets are grouped
// by area, areas are consumed one at a time (locality first, then scored),
// and collected coordinates trail the route in their original relative order.
func (p *Planner) Plan(ctx context.Context, coords []*models.Coordinate) Route {
	var groups []*areaGroup
	byArea := make(map[string]*areaGroup)
	var collected []*models.Coordinate

	for _, c := range coords {
		if err := c.Validate(); err != nil {
			// Defensive: input boundaries validate, but never let a bad
			// entry torpedo the whole run.
			log.Printf("[PLANNER] Skipping invalid coordinate: %v", err)
			continue
		}
		if c.Collected {
			collected = append(collected, c)
			continue
		}
		g, ok := byArea[c.AreaID]
		if !ok {
			g = &areaGroup{areaID: c.AreaID}
			byArea[c.AreaID] = g
			groups = append(groups, g)
		}
		g.targets = append(g.targets, c)
	}

	cur, curArea := p.startingLocation()
	route := Route{}

	remaining := groups
	for len(remaining) > 0 {
		idx := p.chooseNextArea(remaining, cur, curArea)
		g := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		sub := p.planArea(g, cur, curArea)
		route.Steps = append(route.Steps, sub.Steps...)
		route.TotalSeconds += sub.TotalSeconds

		if n := len(sub.Steps); n > 0 {
			last := sub.Steps[n-1].Target
			cur = last.Point()
			curArea = last.AreaID
		}

		// Teleport fees can depend on where the route now stands.
		for _, rg := range remaining {
			p.Anchors.RefreshCosts(ctx, cur, p.Anchors.AllAnchors(rg.areaID))
		}
	}

	for _, c := range collected {
		route.Steps = append(route.Steps, Step{Target: c})
	}

	return route
}

// startingLocation resolves the player position, substituting a synthetic
// zero location when the host has none to report.
func (p *Planner) startingLocation() (models.Point, string) {
	if p.Location != nil {
		if loc, ok := p.Location.CurrentLocation(); ok {
			return loc.Point(), loc.AreaID
		}
	}
	log.Printf("[PLANNER] No player location available, using synthetic origin")
	return models.Point{}, ""
}

// chooseNextArea picks the index of the next area to visit. The current area
// always wins when it still has pending targets; otherwise areas are scored
// by weighted fee, anchor-to-target distance, and target density.
func (p *Planner) chooseNextArea(remaining []*areaGroup, cur models.Point, curArea string) int {
	for i, g := range remaining {
		if g.areaID == curArea {
			return i
		}
	}
	if len(remaining) == 1 {
		return 0
	}

	type areaScore struct {
		fee     float64
		dist    float64
		density float64
	}
	scores := make([]areaScore, len(remaining))
	maxFee, maxDist, maxDensity := 0.0, 0.0, 0.0

	for i, g := range remaining {
		s := areaScore{density: float64(len(g.targets))}
		if a, ok := p.Anchors.CheapestAnchor(g.areaID); ok {
			s.fee = float64(a.TravelCost)
			s.dist = nearestTargetDistance(a.Point(), g.targets)
		} else {
			// No fast travel into this area; rank its distance term worst.
			s.dist = math.Inf(1)
		}
		scores[i] = s
		maxFee = math.Max(maxFee, s.fee)
		if !math.IsInf(s.dist, 0) {
			maxDist = math.Max(maxDist, s.dist)
		}
		maxDensity = math.Max(maxDensity, s.density)
	}

	bestIdx := 0
	bestScore := math.Inf(1)
	for i, s := range scores {
		normFee, normDist, normDensity := 0.0, 1.0, 0.0
		if maxFee > 0 {
			normFee = s.fee / maxFee
		}
		if math.IsInf(s.dist, 0) {
			normDist = 1.0
		} else if maxDist > 0 {
			normDist = s.dist / maxDist
		} else {
			normDist = 0
		}
		if maxDensity > 0 {
			normDensity = s.density / maxDensity
		}

		score := p.Weights.TeleportCost*normFee +
			p.Weights.Distance*normDist +
			p.Weights.Density*(1-normDensity)

		// Strict comparison keeps ties on insertion order.
		if score < bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	log.Printf("[PLANNER] Next area: %s (score=%.3f of %d candidates)", remaining[bestIdx].areaID, bestScore, len(remaining))
	return bestIdx
}

// planArea decides how to enter the area and runs the intra-area optimizer.
func (p *Planner) planArea(g *areaGroup, cur models.Point, curArea string) Route {
	anchors := p.Anchors.AllAnchors(g.areaID)
	cheapest, hasCheapest := p.Anchors.CheapestAnchor(g.areaID)

	teleport := g.areaID != curArea
	if !teleport && hasCheapest {
		// Same area: re-anchor only when the player is farther from every
		// pending target than the anchor network is.
		walkMin := nearestTargetDistance(cur, g.targets)
		anchorMin := math.Inf(1)
		for _, a := range anchors {
			anchorMin = math.Min(anchorMin, nearestTargetDistance(a.Point(), g.targets))
		}
		teleport = walkMin > p.LocalityThreshold && anchorMin < walkMin
	}

	opts := OptimizeOptions{}
	start := cur
	startIsAnchor := false

	switch {
	case teleport && hasCheapest:
		start = cheapest.Point()
		startIsAnchor = true
		opts.ForceInitialTeleport = true
		opts.PreferredAnchor = cheapest
	case teleport:
		// Area unreachable by fast travel: distances from the previous area
		// are undefined, so seed from the first target at zero cost.
		log.Printf("[PLANNER] Area %s has no anchors, entering at first target", g.areaID)
		start = g.targets[0].Point()
	}

	sub := p.Optimizer.Optimize(start, startIsAnchor, g.targets, anchors, opts)
	log.Printf("[PLANNER] Area %s: targets=%d teleport=%v time=%.1fs", g.areaID, len(g.targets), teleport, sub.TotalSeconds)
	return sub
}

func nearestTargetDistance(from models.Point, targets []*models.Coordinate) float64 {
	min := math.Inf(1)
	for _, t := range targets {
		min = math.Min(min, from.DistanceTo(t.Point()))
	}
	return min
}
