package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasure-route-planner/internal/models"
)

func tgt(x, y float64) *models.Coordinate {
	return &models.Coordinate{X: x, Y: y, AreaID: "test-area"}
}

func TestOptimizeEmptyInput(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())
	route := o.Optimize(models.Point{}, false, nil, nil, OptimizeOptions{})

	assert.Empty(t, route.Steps)
	assert.Zero(t, route.TotalSeconds)
}

func TestOptimizeSingleTarget(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())
	target := tgt(14, 0)

	route := o.Optimize(models.Point{}, false, []*models.Coordinate{target}, nil, OptimizeOptions{})

	require.Len(t, route.Steps, 1)
	assert.Same(t, target, route.Steps[0].Target)
	assert.Nil(t, route.Steps[0].ViaAnchor)
	// mount + 14 units at 1.4 units/sec
	assert.InDelta(t, 1.0+10.0, route.TotalSeconds, 1e-9)
}

func TestOptimizeVisitsEveryTargetOnce(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())

	// Nine targets forces the heuristic path instead of brute force.
	targets := []*models.Coordinate{
		tgt(10, 0), tgt(0, 10), tgt(-10, 0), tgt(0, -10),
		tgt(20, 20), tgt(-20, 20), tgt(-20, -20), tgt(20, -20),
		tgt(5, 5),
	}

	route := o.Optimize(models.Point{}, false, targets, nil, OptimizeOptions{})

	require.Len(t, route.Steps, len(targets))
	seen := make(map[*models.Coordinate]bool)
	for _, s := range route.Steps {
		assert.False(t, seen[s.Target], "target visited twice")
		seen[s.Target] = true
	}
	assert.Len(t, seen, len(targets))
}

func TestOptimizeSmallNMatchesExhaustiveSearch(t *testing.T) {
	cost := DefaultCostModel()
	o := NewOptimizer(cost)
	start := models.Point{X: 3, Y: -2}

	targets := []*models.Coordinate{
		tgt(12, 7), tgt(-4, 15), tgt(30, -1), tgt(8, -20), tgt(-11, -3),
	}

	route := o.Optimize(start, false, targets, nil, OptimizeOptions{})

	// Independent exhaustive search over direct-travel orders.
	directCost := func(order []int) float64 {
		cur := start
		total := 0.0
		for _, idx := range order {
			p := targets[idx].Point()
			total += cost.TimeCost(cur, p, false, false)
			cur = p
		}
		return total
	}

	best := math.Inf(1)
	var enumerate func(order, rest []int)
	enumerate = func(order, rest []int) {
		if len(rest) == 0 {
			if c := directCost(order); c < best {
				best = c
			}
			return
		}
		for i := range rest {
			next := append(append([]int{}, order...), rest[i])
			remaining := append(append([]int{}, rest[:i]...), rest[i+1:]...)
			enumerate(next, remaining)
		}
	}
	enumerate(nil, []int{0, 1, 2, 3, 4})

	assert.InDelta(t, best, route.TotalSeconds, 1e-9)
}

func TestOptimizeNearestFirstSingleArea(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())

	near := tgt(5, 0)
	mid := tgt(10, 0)
	far := tgt(20, 0)

	route := o.Optimize(models.Point{}, false, []*models.Coordinate{far, near, mid}, nil, OptimizeOptions{})

	require.Len(t, route.Steps, 3)
	assert.Same(t, near, route.Steps[0].Target)
	assert.Same(t, mid, route.Steps[1].Target)
	assert.Same(t, far, route.Steps[2].Target)
	for _, s := range route.Steps {
		assert.Nil(t, s.ViaAnchor)
	}
}

func TestOptimizeTeleportsWhenStrictlyCheaper(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())

	target := tgt(1000, 0)
	anchor := &models.Anchor{ID: 7, Name: "Far Stone", AreaID: "test-area", X: 999, Y: 0}

	route := o.Optimize(models.Point{}, false, []*models.Coordinate{target}, []*models.Anchor{anchor}, OptimizeOptions{})

	require.Len(t, route.Steps, 1)
	require.NotNil(t, route.Steps[0].ViaAnchor)
	assert.Equal(t, int64(7), route.Steps[0].ViaAnchor.ID)
	// cast + load + mount + 1 unit ride
	assert.InDelta(t, 5.0+6.0+1.0+1.0/1.4, route.Steps[0].Seconds, 1e-9)
}

func TestOptimizeStaysDirectWhenTeleportNotCheaper(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())

	// The anchor sits on the target, but the fixed teleport overhead still
	// loses to a short mounted ride.
	target := tgt(5, 0)
	anchor := &models.Anchor{ID: 1, Name: "Near Stone", AreaID: "test-area", X: 5, Y: 0}

	route := o.Optimize(models.Point{}, false, []*models.Coordinate{target}, []*models.Anchor{anchor}, OptimizeOptions{})

	require.Len(t, route.Steps, 1)
	assert.Nil(t, route.Steps[0].ViaAnchor)
}

func TestOptimizeForcedInitialTeleport(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())

	a := &models.Anchor{ID: 3, Name: "Entry Stone", AreaID: "test-area", X: 0, Y: 0}
	targets := []*models.Coordinate{tgt(2, 0), tgt(4, 0)}

	route := o.Optimize(a.Point(), true, targets, []*models.Anchor{a}, OptimizeOptions{
		ForceInitialTeleport: true,
		PreferredAnchor:      a,
	})

	require.Len(t, route.Steps, 2)
	require.NotNil(t, route.Steps[0].ViaAnchor)
	assert.Equal(t, int64(3), route.Steps[0].ViaAnchor.ID)
	// The forced hop applies to the first step only.
	assert.Nil(t, route.Steps[1].ViaAnchor)
}

func TestTwoOptNeverWorsensOrder(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())
	start := models.Point{}

	// A ring visited in a deliberately scrambled order.
	targets := []*models.Coordinate{
		tgt(50, 0), tgt(35, 35), tgt(0, 50), tgt(-35, 35),
		tgt(-50, 0), tgt(-35, -35), tgt(0, -50), tgt(35, -35),
	}
	order := []int{0, 4, 1, 5, 2, 6, 3, 7}

	before := o.walkCost(start, false, targets, nil, order, OptimizeOptions{})
	improved := o.twoOpt(start, false, targets, nil, order, OptimizeOptions{})
	after := o.walkCost(start, false, targets, nil, improved, OptimizeOptions{})

	assert.LessOrEqual(t, after, before)
	// Crossing the ring repeatedly is clearly improvable.
	assert.Less(t, after, before)
}

func TestAnnealReturnsAtLeastSeedQuality(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())
	start := models.Point{}

	var targets []*models.Coordinate
	for i := 0; i < 12; i++ {
		targets = append(targets, tgt(float64(i*13%7)*10, float64(i*7%5)*10))
	}
	seed := o.nearestTimeNeighbor(start, false, targets, nil, OptimizeOptions{})
	seedCost := o.walkCost(start, false, targets, nil, seed, OptimizeOptions{})

	out := o.anneal(start, false, targets, nil, seed, OptimizeOptions{})
	outCost := o.walkCost(start, false, targets, nil, out, OptimizeOptions{})

	// Annealing tracks the best order seen, so it can never hand back
	// something worse than its seed.
	assert.LessOrEqual(t, outCost, seedCost)
	assert.Len(t, out, len(targets))
}

func TestOptimizeTotalMatchesStepSum(t *testing.T) {
	o := NewOptimizer(DefaultCostModel())

	targets := []*models.Coordinate{tgt(5, 5), tgt(-3, 9), tgt(20, -4), tgt(7, 7)}
	anchor := &models.Anchor{ID: 1, Name: "Stone", AreaID: "test-area", X: 18, Y: -4}

	route := o.Optimize(models.Point{}, false, targets, []*models.Anchor{anchor}, OptimizeOptions{})

	sum := 0.0
	for _, s := range route.Steps {
		sum += s.Seconds
	}
	assert.InDelta(t, sum, route.TotalSeconds, 1e-9)
}

func TestRouteTargetCountExcludesCollected(t *testing.T) {
	collected := tgt(9, 9)
	collected.Collected = true

	route := Route{Steps: []Step{
		{Target: tgt(1, 1)},
		{Target: tgt(2, 2)},
		{Target: collected},
	}}

	assert.Equal(t, 2, route.TargetCount())
	assert.Zero(t, Route{}.TargetCount())
}

func TestRouteMaterializeInsertsHopMarkers(t *testing.T) {
	anchor := &models.Anchor{ID: 9, Name: "Gate Stone", AreaID: "test-area", X: 1, Y: 2}
	target := tgt(3, 4)
	target.ID = 42

	route := Route{Steps: []Step{
		{Target: tgt(0, 0)},
		{Target: target, ViaAnchor: anchor},
	}}

	out := route.Materialize()

	require.Len(t, out, 3)
	assert.Equal(t, models.KindTarget, out[0].Kind)

	marker := out[1]
	assert.Equal(t, models.KindTeleportHop, marker.Kind)
	assert.Equal(t, "Gate Stone", marker.DisplayName)
	assert.Equal(t, int64(9), marker.AnchorID)
	assert.Equal(t, 1.0, marker.X)
	assert.Equal(t, 2.0, marker.Y)

	assert.Equal(t, int64(42), out[2].ID)
	assert.Equal(t, models.KindTarget, out[2].Kind)
	assert.Equal(t, int64(9), out[2].AnchorID)
}
