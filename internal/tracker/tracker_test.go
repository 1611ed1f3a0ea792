package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasure-route-planner/internal/models"
	"treasure-route-planner/internal/routing"
	"treasure-route-planner/internal/testutil"
)

func newTestTracker(t *testing.T) (*Tracker, *testutil.RecordingObserver) {
	t.Helper()
	observer := &testutil.RecordingObserver{}
	planner := routing.NewPlanner(
		routing.NewOptimizer(routing.DefaultCostModel()),
		testutil.NewStaticAnchorProvider(),
		&testutil.FixedLocation{Coordinate: &models.Coordinate{AreaID: "plains", X: 0, Y: 0}},
	)
	return New(planner, testutil.NewMemoryCoordinateRepository(), observer), observer
}

func coord(x, y float64) *models.Coordinate {
	return &models.Coordinate{AreaID: "plains", X: x, Y: y}
}

func TestAddAndPending(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))

	pending := tr.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, 5.0, pending[0].X)
	assert.NotZero(t, pending[0].ID, "repository assigns ids")
}

func TestAddRejectsInvalidCoordinate(t *testing.T) {
	tr, _ := newTestTracker(t)

	err := tr.Add(context.Background(), &models.Coordinate{X: 1, Y: 2})

	var invalid *models.ErrInvalidCoordinate
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, tr.Pending())
}

func TestDeleteMovesToBin(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))

	require.NoError(t, tr.Delete(ctx, 0))

	pending := tr.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 10.0, pending[0].X)

	deleted := tr.Deleted()
	require.Len(t, deleted, 1)
	assert.Equal(t, 5.0, deleted[0].X)
}

func TestDeleteOutOfRange(t *testing.T) {
	tr, _ := newTestTracker(t)

	err := tr.Delete(context.Background(), 3)

	var oor *ErrIndexOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 3, oor.Index)
	assert.Equal(t, 0, oor.Len)
}

func TestRestoreAppendsToPending(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))
	require.NoError(t, tr.Delete(ctx, 0))

	require.NoError(t, tr.Restore(ctx, 0))

	pending := tr.Pending()
	require.Len(t, pending, 2)
	// Restore appends rather than re-inserting at the old position.
	assert.Equal(t, 10.0, pending[0].X)
	assert.Equal(t, 5.0, pending[1].X)
	assert.Empty(t, tr.Deleted())
}

func TestOptimizeProducesOrderedRoute(t *testing.T) {
	tr, observer := newTestTracker(t)
	ctx := context.Background()

	// Inserted farthest-first so optimization has to reorder.
	require.NoError(t, tr.Add(ctx, coord(20, 0)))
	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))

	route, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.Len(t, route, 3)
	assert.Equal(t, 5.0, route[0].X)
	assert.Equal(t, 10.0, route[1].X)
	assert.Equal(t, 20.0, route[2].X)

	assert.Equal(t, []int{3}, observer.OptimizedCounts)
	assert.Equal(t, route, tr.Route())
}

func TestOptimizeRejectedWhileBusy(t *testing.T) {
	tr, observer := newTestTracker(t)
	ctx := context.Background()
	require.NoError(t, tr.Add(ctx, coord(5, 0)))

	// A mutation (or another optimize) holding the tracker must bounce the
	// call instead of blocking on the shared annotation state.
	tr.mu.Lock()
	_, err := tr.Optimize(ctx)
	tr.mu.Unlock()

	var busy *routing.ErrOptimizeBusy
	require.ErrorAs(t, err, &busy)
	assert.Empty(t, observer.OptimizedCounts)

	// The rejection is retryable: once the holder releases, optimize runs.
	route, err := tr.Optimize(ctx)
	require.NoError(t, err)
	assert.Len(t, route, 1)
}

func TestOptimizeEmptyList(t *testing.T) {
	tr, _ := newTestTracker(t)

	route, err := tr.Optimize(context.Background())

	require.NoError(t, err)
	assert.Empty(t, route)
}

func TestResetRestoresOriginalOrder(t *testing.T) {
	tr, observer := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(20, 0)))
	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))

	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.Reset(ctx))

	pending := tr.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, 20.0, pending[0].X)
	assert.Equal(t, 5.0, pending[1].X)
	assert.Equal(t, 10.0, pending[2].X)

	assert.Nil(t, tr.Route())
	assert.Equal(t, 1, observer.Resets)
}

func TestResetWithoutSnapshot(t *testing.T) {
	tr, observer := newTestTracker(t)

	err := tr.Reset(context.Background())

	var noSnap *routing.ErrNoSnapshot
	require.ErrorAs(t, err, &noSnap)
	assert.Zero(t, observer.Resets)
}

func TestResetIsOneShot(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(20, 0)))
	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.Reset(ctx))

	// The snapshot was consumed; a second reset is a reported no-op.
	err = tr.Reset(ctx)
	var noSnap *routing.ErrNoSnapshot
	require.ErrorAs(t, err, &noSnap)

	pending := tr.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, 20.0, pending[0].X)
}

func TestResetAfterDeleteKeepsDeletionAndOrder(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(20, 0)))
	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))

	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	// Delete the coordinate at x=5 out of the pending list.
	var idx int
	for i, c := range tr.Pending() {
		if c.X == 5.0 {
			idx = i
		}
	}
	require.NoError(t, tr.Delete(ctx, idx))

	require.NoError(t, tr.Reset(ctx))

	pending := tr.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, 20.0, pending[0].X)
	assert.Equal(t, 10.0, pending[1].X)
	require.Len(t, tr.Deleted(), 1)
}

func TestResetKeepsPostSnapshotAdditionsAtTail(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(20, 0)))
	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.Add(ctx, coord(99, 0)))

	require.NoError(t, tr.Reset(ctx))

	pending := tr.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, 20.0, pending[0].X)
	assert.Equal(t, 5.0, pending[1].X)
	assert.Equal(t, 99.0, pending[2].X)
}

func TestMembershipChangeInvalidatesRoute(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))
	_, err := tr.Optimize(ctx)
	require.NoError(t, err)
	require.NotNil(t, tr.Route())

	require.NoError(t, tr.Add(ctx, coord(15, 0)))

	assert.Nil(t, tr.Route(), "stale route must be dropped after membership changes")
}

func TestAutoReoptimizeRecomputesInstead(t *testing.T) {
	tr, observer := newTestTracker(t)
	tr.AutoReoptimize = true
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.Add(ctx, coord(10, 0)))

	route := tr.Route()
	require.Len(t, route, 2)
	assert.Equal(t, []int{1, 2}, observer.OptimizedCounts)
}

func TestMarkCollectedKeepsRoute(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))
	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.MarkCollected(ctx, 0))

	route := tr.Route()
	require.NotNil(t, route, "collection is not a membership change")
	assert.True(t, route[0].Collected)
	assert.True(t, tr.Pending()[0].Collected)
}

func TestOptimizeCountExcludesCollected(t *testing.T) {
	tr, observer := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))
	require.NoError(t, tr.MarkCollected(ctx, 1))

	route, err := tr.Optimize(ctx)
	require.NoError(t, err)

	// The collected coordinate still trails the route but is not counted.
	require.Len(t, route, 2)
	assert.Equal(t, []int{1}, observer.OptimizedCounts)
}

func TestClearAllDropsEverything(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	require.NoError(t, tr.Add(ctx, coord(10, 0)))
	_, err := tr.Optimize(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.ClearAll(ctx))

	assert.Empty(t, tr.Pending())
	assert.Nil(t, tr.Route())

	// The snapshot went with it.
	err = tr.Reset(ctx)
	var noSnap *routing.ErrNoSnapshot
	require.ErrorAs(t, err, &noSnap)
}

func TestLoadFromRepository(t *testing.T) {
	repo := testutil.NewMemoryCoordinateRepository()
	ctx := context.Background()

	seed := coord(5, 0)
	require.NoError(t, repo.Create(ctx, seed))
	binned := coord(10, 0)
	require.NoError(t, repo.Create(ctx, binned))
	require.NoError(t, repo.MoveToBin(ctx, binned.ID))

	planner := routing.NewPlanner(
		routing.NewOptimizer(routing.DefaultCostModel()),
		testutil.NewStaticAnchorProvider(),
		&testutil.FixedLocation{},
	)
	tr := New(planner, repo, nil)
	require.NoError(t, tr.Load(ctx))

	require.Len(t, tr.Pending(), 1)
	require.Len(t, tr.Deleted(), 1)
}

func TestOptimizeAnnotatesTeleportTargets(t *testing.T) {
	anchor := &models.Anchor{ID: 8, Name: "Cluster Stone", AreaID: "plains", X: 1000, Y: 0, TravelCost: 10}
	observer := &testutil.RecordingObserver{}
	planner := routing.NewPlanner(
		routing.NewOptimizer(routing.DefaultCostModel()),
		testutil.NewStaticAnchorProvider(anchor),
		&testutil.FixedLocation{Coordinate: &models.Coordinate{AreaID: "plains", X: 0, Y: 0}},
	)
	tr := New(planner, testutil.NewMemoryCoordinateRepository(), observer)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, coord(1001, 0)))

	route, err := tr.Optimize(ctx)
	require.NoError(t, err)

	// Hop marker plus the target it leads to.
	require.Len(t, route, 2)
	assert.Equal(t, models.KindTeleportHop, route[0].Kind)
	assert.Equal(t, int64(8), route[0].AnchorID)
	assert.Equal(t, models.KindTarget, route[1].Kind)
	assert.Equal(t, int64(8), route[1].AnchorID)

	// Re-optimizing after the cluster is gone clears the stale annotation.
	require.NoError(t, tr.Delete(ctx, 0))
	require.NoError(t, tr.Add(ctx, coord(5, 0)))
	route, err = tr.Optimize(ctx)
	require.NoError(t, err)
	require.Len(t, route, 1)
	assert.Zero(t, route[0].AnchorID)
}
