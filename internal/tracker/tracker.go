package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"

	"treasure-route-planner/internal/database"
	"treasure-route-planner/internal/models"
	"treasure-route-planner/internal/routing"
)

// ErrIndexOutOfRange is returned for list mutations with a bad index.
type ErrIndexOutOfRange struct {
	Index int
	Len   int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range (len %d)", e.Index, e.Len)
}

// Tracker is the route state container. It owns three collections:
//
//	pending       all not-yet-deleted coordinates, source of truth for order
//	optimized     the last computed route, empty after invalidation
//	originalOrder snapshot of pending taken on the first optimize after a
//	              reset/clear, consumed by Reset
//
// The snapshot is populated exactly while an optimized route exists or a
// reset is still owed; Reset clears both.
//
// All operations are serialized by one mutex: optimize-and-annotate is a
// single critical section, and a second optimize during one in flight is
// rejected with a retryable error rather than corrupting shared annotations.
type Tracker struct {
	mu       sync.Mutex
	planner  *routing.Planner
	repo     database.CoordinateRepository
	observer routing.Observer

	pending   []*models.Coordinate
	deleted   []*models.Coordinate
	optimized []models.Coordinate
	snapshot  []*models.Coordinate

	// AutoReoptimize re-runs planning synchronously after any membership
	// mutation instead of just invalidating the route.
	AutoReoptimize bool
}

// New creates a tracker over a coordinate repository. repo may be nil for a
// purely in-memory tracker (tests); observer may be nil.
func New(planner *routing.Planner, repo database.CoordinateRepository, observer routing.Observer) *Tracker {
	if observer == nil {
		observer = routing.NopObserver{}
	}
	return &Tracker{
		planner:  planner,
		repo:     repo,
		observer: observer,
	}
}

// Load populates pending and deleted from the repository.
func (t *Tracker) Load(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	pending, err := t.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading coordinates: %w", err)
	}
	deleted, err := t.repo.ListDeleted(ctx)
	if err != nil {
		return fmt.Errorf("loading deleted bin: %w", err)
	}
	t.pending = pending
	t.deleted = deleted
	log.Printf("[TRACKER] Loaded: pending=%d deleted=%d", len(t.pending), len(t.deleted))
	return nil
}

// Add appends a validated coordinate to the pending list.
func (t *Tracker) Add(ctx context.Context, c *models.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	c.Kind = models.KindTarget
	if t.repo != nil {
		if err := t.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("persisting coordinate: %w", err)
		}
	}
	t.pending = append(t.pending, c)
	log.Printf("[TRACKER] Added coordinate id=%d area=%s (%.1f,%.1f)", c.ID, c.AreaID, c.X, c.Y)
	return t.membershipChangedLocked(ctx)
}

// Delete moves the pending coordinate at index to the deleted bin.
func (t *Tracker) Delete(ctx context.Context, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.pending) {
		return &ErrIndexOutOfRange{Index: index, Len: len(t.pending)}
	}
	c := t.pending[index]
	t.pending = append(t.pending[:index], t.pending[index+1:]...)
	t.deleted = append(t.deleted, c)

	if t.repo != nil {
		if err := t.repo.MoveToBin(ctx, c.ID); err != nil {
			return fmt.Errorf("moving coordinate to bin: %w", err)
		}
	}
	log.Printf("[TRACKER] Deleted coordinate id=%d (bin=%d)", c.ID, len(t.deleted))
	return t.membershipChangedLocked(ctx)
}

// Restore moves the binned coordinate at index back to the pending list.
func (t *Tracker) Restore(ctx context.Context, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.deleted) {
		return &ErrIndexOutOfRange{Index: index, Len: len(t.deleted)}
	}
	c := t.deleted[index]
	t.deleted = append(t.deleted[:index], t.deleted[index+1:]...)
	t.pending = append(t.pending, c)

	if t.repo != nil {
		if err := t.repo.RestoreFromBin(ctx, c.ID); err != nil {
			return fmt.Errorf("restoring coordinate: %w", err)
		}
	}
	log.Printf("[TRACKER] Restored coordinate id=%d", c.ID)
	return t.membershipChangedLocked(ctx)
}

// ClearAll drops every pending coordinate along with any route and snapshot.
func (t *Tracker) ClearAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.repo != nil {
		if err := t.repo.Clear(ctx); err != nil {
			return fmt.Errorf("clearing coordinates: %w", err)
		}
	}
	n := len(t.pending)
	t.pending = nil
	t.optimized = nil
	t.snapshot = nil
	log.Printf("[TRACKER] Cleared %d coordinates", n)
	return nil
}

// MarkCollected flips the collected flag on the pending coordinate at index.
// Collection does not change membership, so the optimized route survives.
func (t *Tracker) MarkCollected(ctx context.Context, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.pending) {
		return &ErrIndexOutOfRange{Index: index, Len: len(t.pending)}
	}
	c := t.pending[index]
	c.Collected = true
	if t.repo != nil {
		if err := t.repo.SetCollected(ctx, c.ID, true); err != nil {
			return fmt.Errorf("marking collected: %w", err)
		}
	}
	for i := range t.optimized {
		if t.optimized[i].ID == c.ID && t.optimized[i].Kind == models.KindTarget {
			t.optimized[i].Collected = true
		}
	}
	log.Printf("[TRACKER] Collected coordinate id=%d", c.ID)
	return nil
}

// Optimize computes a fresh global route over the pending list. A call that
// arrives while another optimize or mutation holds the tracker is rejected
// with the retryable ErrOptimizeBusy instead of racing the shared
// annotation state.
func (t *Tracker) Optimize(ctx context.Context) ([]models.Coordinate, error) {
	if !t.mu.TryLock() {
		return nil, &routing.ErrOptimizeBusy{}
	}
	defer t.mu.Unlock()
	return t.optimizeLocked(ctx)
}

func (t *Tracker) optimizeLocked(ctx context.Context) ([]models.Coordinate, error) {
	// First optimize since the last reset/clear captures the import order.
	if t.snapshot == nil {
		t.snapshot = make([]*models.Coordinate, len(t.pending))
		copy(t.snapshot, t.pending)
	}

	// Stale annotations from a previous run must not leak into this one.
	for _, c := range t.pending {
		c.Kind = models.KindTarget
		c.AnchorID = 0
	}

	route := t.planner.Plan(ctx, t.pending)
	targetCount := route.TargetCount()

	// Write the teleport-hop annotations back onto the targets that start a
	// hop, for display alongside the route.
	for _, s := range route.Steps {
		if s.ViaAnchor != nil {
			s.Target.AnchorID = s.ViaAnchor.ID
		}
	}
	if t.repo != nil {
		if err := t.saveAnnotations(ctx); err != nil {
			log.Printf("[TRACKER] Could not persist annotations: %v", err)
		}
	}

	t.optimized = route.Materialize()
	log.Printf("[TRACKER] Optimized: targets=%d entries=%d estimate=%.1fs", targetCount, len(t.optimized), route.TotalSeconds)
	t.observer.RouteOptimized(targetCount)

	out := make([]models.Coordinate, len(t.optimized))
	copy(out, t.optimized)
	return out, nil
}

// Reset restores the pending list to the snapshot taken before the first
// optimization, clears all teleport annotations, and discards both the route
// and the snapshot. Without a snapshot it is a reported no-op.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snapshot == nil {
		log.Printf("[TRACKER] Reset requested with no snapshot, ignoring")
		return &routing.ErrNoSnapshot{}
	}

	// Snapshot order for what is still pending; deletions stay deleted, and
	// anything added after the snapshot keeps its relative order at the tail.
	present := make(map[*models.Coordinate]bool, len(t.pending))
	for _, c := range t.pending {
		present[c] = true
	}
	restored := make([]*models.Coordinate, 0, len(t.pending))
	inSnapshot := make(map[*models.Coordinate]bool, len(t.snapshot))
	for _, c := range t.snapshot {
		inSnapshot[c] = true
		if present[c] {
			restored = append(restored, c)
		}
	}
	for _, c := range t.pending {
		if !inSnapshot[c] {
			restored = append(restored, c)
		}
	}
	t.pending = restored

	for _, c := range t.pending {
		c.Kind = models.KindTarget
		c.AnchorID = 0
	}
	if t.repo != nil {
		if err := t.saveAnnotations(ctx); err != nil {
			log.Printf("[TRACKER] Could not persist annotation reset: %v", err)
		}
	}

	t.optimized = nil
	t.snapshot = nil
	log.Printf("[TRACKER] Reset to original order: pending=%d", len(t.pending))
	t.observer.RouteReset()
	return nil
}

// membershipChangedLocked invalidates or recomputes the route after a
// pending-list membership change.
func (t *Tracker) membershipChangedLocked(ctx context.Context) error {
	if t.optimized == nil {
		return nil
	}
	if t.AutoReoptimize {
		_, err := t.optimizeLocked(ctx)
		return err
	}
	t.optimized = nil
	return nil
}

func (t *Tracker) saveAnnotations(ctx context.Context) error {
	for _, c := range t.pending {
		if err := t.repo.UpdateAnnotations(ctx, c.ID, c.Kind, c.AnchorID); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns a copy of the pending list in its current order.
func (t *Tracker) Pending() []models.Coordinate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Coordinate, len(t.pending))
	for i, c := range t.pending {
		out[i] = *c
	}
	return out
}

// Deleted returns a copy of the deleted bin.
func (t *Tracker) Deleted() []models.Coordinate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Coordinate, len(t.deleted))
	for i, c := range t.deleted {
		out[i] = *c
	}
	return out
}

// Route returns the last optimized route, or nil when none is current.
func (t *Tracker) Route() []models.Coordinate {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.optimized == nil {
		return nil
	}
	out := make([]models.Coordinate, len(t.optimized))
	copy(out, t.optimized)
	return out
}
