package testutil

import (
	"context"
	"sync"

	"treasure-route-planner/internal/database"
	"treasure-route-planner/internal/models"
)

// StaticAnchorProvider serves a fixed anchor set from memory.
type StaticAnchorProvider struct {
	ByArea map[string][]*models.Anchor
	// RefreshedCosts records every anchor id passed to RefreshCosts.
	RefreshedCosts []int64
}

func NewStaticAnchorProvider(anchors ...*models.Anchor) *StaticAnchorProvider {
	p := &StaticAnchorProvider{ByArea: make(map[string][]*models.Anchor)}
	for _, a := range anchors {
		p.ByArea[a.AreaID] = append(p.ByArea[a.AreaID], a)
	}
	return p
}

func (p *StaticAnchorProvider) AllAnchors(areaID string) []*models.Anchor {
	return p.ByArea[areaID]
}

func (p *StaticAnchorProvider) CheapestAnchor(areaID string) (*models.Anchor, bool) {
	var best *models.Anchor
	for _, a := range p.ByArea[areaID] {
		if best == nil || a.TravelCost < best.TravelCost {
			best = a
		}
	}
	return best, best != nil
}

func (p *StaticAnchorProvider) RefreshCosts(_ context.Context, _ models.Point, anchors []*models.Anchor) {
	for _, a := range anchors {
		p.RefreshedCosts = append(p.RefreshedCosts, a.ID)
	}
}

// FixedLocation always reports the same player position. A nil Coordinate
// reports no position at all.
type FixedLocation struct {
	Coordinate *models.Coordinate
}

func (l *FixedLocation) CurrentLocation() (*models.Coordinate, bool) {
	if l.Coordinate == nil {
		return nil, false
	}
	c := *l.Coordinate
	return &c, true
}

// RecordingObserver counts route notifications for assertions.
type RecordingObserver struct {
	OptimizedCounts []int
	Resets          int
}

func (o *RecordingObserver) RouteOptimized(targetCount int) {
	o.OptimizedCounts = append(o.OptimizedCounts, targetCount)
}

func (o *RecordingObserver) RouteReset() {
	o.Resets++
}

// MemoryCoordinateRepository is an in-memory database.CoordinateRepository
// for tests that don't need SQLite.
type MemoryCoordinateRepository struct {
	mu      sync.Mutex
	nextID  int64
	pending map[int64]*models.Coordinate
	binned  map[int64]*models.Coordinate
	order   []int64
}

var _ database.CoordinateRepository = (*MemoryCoordinateRepository)(nil)

func NewMemoryCoordinateRepository() *MemoryCoordinateRepository {
	return &MemoryCoordinateRepository{
		nextID:  1,
		pending: make(map[int64]*models.Coordinate),
		binned:  make(map[int64]*models.Coordinate),
	}
}

func (r *MemoryCoordinateRepository) List(ctx context.Context) ([]*models.Coordinate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Coordinate
	for _, id := range r.order {
		if c, ok := r.pending[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryCoordinateRepository) ListDeleted(ctx context.Context) ([]*models.Coordinate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Coordinate
	for _, id := range r.order {
		if c, ok := r.binned[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryCoordinateRepository) Create(ctx context.Context, c *models.Coordinate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	cp := *c
	r.pending[c.ID] = &cp
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MemoryCoordinateRepository) MoveToBin(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.pending[id]
	if !ok {
		return &database.ErrNotFound{Entity: "coordinate", ID: id}
	}
	delete(r.pending, id)
	r.binned[id] = c
	return nil
}

func (r *MemoryCoordinateRepository) RestoreFromBin(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.binned[id]
	if !ok {
		return &database.ErrNotFound{Entity: "coordinate", ID: id}
	}
	delete(r.binned, id)
	r.pending[id] = c
	return nil
}

func (r *MemoryCoordinateRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = make(map[int64]*models.Coordinate)
	return nil
}

func (r *MemoryCoordinateRepository) SetCollected(ctx context.Context, id int64, collected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.pending[id]; ok {
		c.Collected = collected
		return nil
	}
	return &database.ErrNotFound{Entity: "coordinate", ID: id}
}

// MemoryAnchorRepository is an in-memory database.AnchorRepository.
type MemoryAnchorRepository struct {
	mu      sync.Mutex
	nextID  int64
	anchors []*models.Anchor
}

var _ database.AnchorRepository = (*MemoryAnchorRepository)(nil)

func NewMemoryAnchorRepository() *MemoryAnchorRepository {
	return &MemoryAnchorRepository{nextID: 1}
}

func (r *MemoryAnchorRepository) ListAll(ctx context.Context) ([]*models.Anchor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Anchor, 0, len(r.anchors))
	for _, a := range r.anchors {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryAnchorRepository) ListByArea(ctx context.Context, areaID string) ([]*models.Anchor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Anchor
	for _, a := range r.anchors {
		if a.AreaID == areaID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryAnchorRepository) Upsert(ctx context.Context, a *models.Anchor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.anchors {
		if existing.AreaID == a.AreaID && existing.Name == a.Name {
			existing.X = a.X
			existing.Y = a.Y
			existing.TravelCost = a.TravelCost
			a.ID = existing.ID
			return nil
		}
	}
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.anchors = append(r.anchors, &cp)
	return nil
}

func (r *MemoryAnchorRepository) UpdateTravelCost(ctx context.Context, id int64, cost int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.anchors {
		if a.ID == id {
			a.TravelCost = cost
			return nil
		}
	}
	return &database.ErrNotFound{Entity: "anchor", ID: id}
}

func (r *MemoryCoordinateRepository) UpdateAnnotations(ctx context.Context, id int64, kind models.Kind, anchorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.pending[id]; ok {
		c.Kind = kind
		c.AnchorID = anchorID
		return nil
	}
	if c, ok := r.binned[id]; ok {
		c.Kind = kind
		c.AnchorID = anchorID
		return nil
	}
	return &database.ErrNotFound{Entity: "coordinate", ID: id}
}
