package routing

import (
	"log"
	"math"
	"math/rand"
	"time"

	"treasure-route-planner/internal/models"
)

// Thresholds and caps for the algorithm ladder. BruteForceMax must stay small
// enough that factorial enumeration is bounded (6! = 720 permutations).
const (
	bruteForceMax    = 6
	annealMinTargets = 11
	twoOptMaxPasses  = 25
	annealIterations = 2000
	annealStartTemp  = 30.0
	annealCooling    = 0.995
)

// OptimizeOptions controls how a sub-route is seeded.
type OptimizeOptions struct {
	// ForceInitialTeleport makes the first step a teleport hop even when
	// walking would be cheaper, used when the planner has already decided to
	// enter the area via an anchor.
	ForceInitialTeleport bool
	// PreferredAnchor pins the forced initial hop to a specific anchor.
	PreferredAnchor *models.Anchor
}

// Optimizer orders targets within a single area, deciding per step between
// direct travel and a teleport-assisted detour.
type Optimizer struct {
	cost CostModel
	rng  *rand.Rand
}

// NewOptimizer creates an optimizer over the given cost model.
func NewOptimizer(cost CostModel) *Optimizer {
	return &Optimizer{
		cost: cost,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Optimize returns an ordered route over targets, all of which must share one
// area. start may itself be an anchor. With no anchors in the area every leg
// is direct travel. Empty input yields an empty route; malformed coordinates
// are the caller's responsibility to filter.
func (o *Optimizer) Optimize(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, opts OptimizeOptions) Route {
	n := len(targets)
	if n == 0 {
		return Route{}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	if n == 1 {
		return o.build(start, startIsAnchor, targets, anchors, order, opts)
	}

	if n <= bruteForceMax {
		order = o.bruteForce(start, startIsAnchor, targets, anchors, opts)
	} else {
		order = o.nearestTimeNeighbor(start, startIsAnchor, targets, anchors, opts)
	}

	order = o.twoOpt(start, startIsAnchor, targets, anchors, order, opts)

	if n >= annealMinTargets {
		order = o.anneal(start, startIsAnchor, targets, anchors, order, opts)
	}

	return o.build(start, startIsAnchor, targets, anchors, order, opts)
}

// bestAnchorFor returns the anchor minimizing teleport-assisted cost to t,
// or nil when the area has no anchors.
func (o *Optimizer) bestAnchorFor(t models.Point, anchors []*models.Anchor) (*models.Anchor, float64) {
	var best *models.Anchor
	bestCost := math.Inf(1)
	for _, a := range anchors {
		c := o.cost.TimeCost(a.Point(), t, true, false)
		if c < bestCost {
			bestCost = c
			best = a
		}
	}
	return best, bestCost
}

// stepChoice decides direct versus teleport for one leg. Ties break toward
// direct travel; teleport markers only appear when strictly cheaper.
func (o *Optimizer) stepChoice(cur models.Point, curIsAnchor bool, t models.Point, anchors []*models.Anchor, forced bool, preferred *models.Anchor) (*models.Anchor, float64) {
	direct := o.cost.TimeCost(cur, t, curIsAnchor, false)

	if forced {
		if preferred != nil {
			return preferred, o.cost.TimeCost(preferred.Point(), t, true, false)
		}
		if a, via := o.bestAnchorFor(t, anchors); a != nil {
			return a, via
		}
		return nil, direct // no anchors in area, teleport impossible
	}

	a, via := o.bestAnchorFor(t, anchors)
	if a != nil && via < direct {
		return a, via
	}
	return nil, direct
}

// walkCost totals the estimated time of visiting targets in the given order.
func (o *Optimizer) walkCost(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, order []int, opts OptimizeOptions) float64 {
	cur := start
	curIsAnchor := startIsAnchor
	total := 0.0
	for i, idx := range order {
		t := targets[idx].Point()
		forced := i == 0 && opts.ForceInitialTeleport
		_, c := o.stepChoice(cur, curIsAnchor, t, anchors, forced, opts.PreferredAnchor)
		total += c
		cur = t
		curIsAnchor = false
	}
	return total
}

// build materializes the per-step decisions for a final order.
func (o *Optimizer) build(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, order []int, opts OptimizeOptions) Route {
	route := Route{Steps: make([]Step, 0, len(order))}
	cur := start
	curIsAnchor := startIsAnchor
	for i, idx := range order {
		t := targets[idx]
		forced := i == 0 && opts.ForceInitialTeleport
		via, c := o.stepChoice(cur, curIsAnchor, t.Point(), anchors, forced, opts.PreferredAnchor)
		route.Steps = append(route.Steps, Step{Target: t, ViaAnchor: via, Seconds: c})
		route.TotalSeconds += c
		cur = t.Point()
		curIsAnchor = false
	}
	return route
}

// bruteForce enumerates every permutation and keeps the cheapest. Guarantees
// the optimum for small N.
func (o *Optimizer) bruteForce(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, opts OptimizeOptions) []int {
	it := newPermutationIterator(len(targets))
	best := make([]int, len(targets))
	bestCost := math.Inf(1)
	evaluated := 0

	for perm, ok := it.Next(); ok; perm, ok = it.Next() {
		evaluated++
		c := o.walkCost(start, startIsAnchor, targets, anchors, perm, opts)
		if c < bestCost {
			bestCost = c
			copy(best, perm)
		}
	}

	log.Printf("[OPTIMIZER] Brute force: targets=%d permutations=%d best=%.1fs", len(targets), evaluated, bestCost)
	return best
}

// nearestTimeNeighbor builds an order constructively, always extending with
// the target whose cheaper of direct/teleport cost is lowest.
func (o *Optimizer) nearestTimeNeighbor(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, opts OptimizeOptions) []int {
	n := len(targets)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	cur := start
	curIsAnchor := startIsAnchor
	for len(order) < n {
		bestIdx := -1
		bestCost := math.Inf(1)
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			forced := len(order) == 0 && opts.ForceInitialTeleport
			_, c := o.stepChoice(cur, curIsAnchor, targets[i].Point(), anchors, forced, opts.PreferredAnchor)
			if c < bestCost {
				bestCost = c
				bestIdx = i
			}
		}
		visited[bestIdx] = true
		order = append(order, bestIdx)
		cur = targets[bestIdx].Point()
		curIsAnchor = false
	}

	log.Printf("[OPTIMIZER] Nearest-time-neighbor: targets=%d", n)
	return order
}

// twoOpt applies the single best-improving segment reversal per pass until no
// reversal helps or the pass cap is hit. Teleport decisions are re-derived
// after each candidate reversal, so hop markers never take part in swaps.
func (o *Optimizer) twoOpt(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, order []int, opts OptimizeOptions) []int {
	if len(order) < 3 {
		return order
	}

	current := o.walkCost(start, startIsAnchor, targets, anchors, order, opts)
	trial := make([]int, len(order))

	for pass := 0; pass < twoOptMaxPasses; pass++ {
		bestI, bestJ := -1, -1
		bestCost := current

		for i := 0; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				copy(trial, order)
				reverseSegment(trial, i, j)
				c := o.walkCost(start, startIsAnchor, targets, anchors, trial, opts)
				if c < bestCost {
					bestCost = c
					bestI, bestJ = i, j
				}
			}
		}

		if bestI < 0 {
			break
		}
		reverseSegment(order, bestI, bestJ)
		current = bestCost
	}

	return order
}

// anneal runs simulated annealing over pairwise swaps with geometric cooling,
// returning the best order seen across all iterations.
func (o *Optimizer) anneal(start models.Point, startIsAnchor bool, targets []*models.Coordinate, anchors []*models.Anchor, order []int, opts OptimizeOptions) []int {
	n := len(order)
	current := make([]int, n)
	copy(current, order)
	currentCost := o.walkCost(start, startIsAnchor, targets, anchors, current, opts)

	best := make([]int, n)
	copy(best, current)
	bestCost := currentCost

	temp := annealStartTemp
	for iter := 0; iter < annealIterations; iter++ {
		i := o.rng.Intn(n)
		j := o.rng.Intn(n)
		if i == j {
			continue
		}

		current[i], current[j] = current[j], current[i]
		c := o.walkCost(start, startIsAnchor, targets, anchors, current, opts)

		accept := c < currentCost
		if !accept && temp > 1e-9 {
			accept = o.rng.Float64() < math.Exp((currentCost-c)/temp)
		}

		if accept {
			currentCost = c
			if c < bestCost {
				bestCost = c
				copy(best, current)
			}
		} else {
			current[i], current[j] = current[j], current[i]
		}

		temp *= annealCooling
	}

	log.Printf("[OPTIMIZER] Annealing: targets=%d best=%.1fs", n, bestCost)
	return best
}

func reverseSegment(order []int, i, j int) {
	for i < j {
		order[i], order[j] = order[j], order[i]
		i++
		j--
	}
}
