package fasttravel

import (
	"context"
	"log"
	"sync"

	"treasure-route-planner/internal/database"
	"treasure-route-planner/internal/models"
)

// FeeSource resolves the currency cost of teleporting to an anchor from a
// given departure point. In the full application this is answered by the
// game client; the default implementation falls back to the catalog's stored
// base cost.
type FeeSource interface {
	TeleportFee(from models.Point, a *models.Anchor) int64
}

// StaticFeeSource returns the anchor's stored base cost unchanged.
type StaticFeeSource struct{}

func (StaticFeeSource) TeleportFee(_ models.Point, a *models.Anchor) int64 {
	return a.TravelCost
}

// Catalog is the fast-travel anchor provider: an in-memory view over the
// anchor repository with fee refresh through a FeeSource.
type Catalog struct {
	mu     sync.RWMutex
	repo   database.AnchorRepository
	fees   FeeSource
	byArea map[string][]*models.Anchor
}

// NewCatalog creates a catalog over repo. fees may be nil, defaulting to the
// stored base costs.
func NewCatalog(repo database.AnchorRepository, fees FeeSource) *Catalog {
	if fees == nil {
		fees = StaticFeeSource{}
	}
	return &Catalog{
		repo:   repo,
		fees:   fees,
		byArea: make(map[string][]*models.Anchor),
	}
}

// Load populates the in-memory view from the repository.
func (c *Catalog) Load(ctx context.Context) error {
	anchors, err := c.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byArea = make(map[string][]*models.Anchor)
	for _, a := range anchors {
		c.byArea[a.AreaID] = append(c.byArea[a.AreaID], a)
	}
	log.Printf("[FASTTRAVEL] Loaded %d anchors across %d areas", len(anchors), len(c.byArea))
	return nil
}

// Seed upserts a default anchor set, then reloads. Used on first run when
// the catalog table is empty.
func (c *Catalog) Seed(ctx context.Context, anchors []*models.Anchor) error {
	for _, a := range anchors {
		if err := c.repo.Upsert(ctx, a); err != nil {
			return err
		}
	}
	return c.Load(ctx)
}

// AllAnchors returns the anchors of one area. The returned slice is shared
// with the catalog; callers treat it as read-only apart from RefreshCosts.
func (c *Catalog) AllAnchors(areaID string) []*models.Anchor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byArea[areaID]
}

// CheapestAnchor returns the lowest-cost anchor in an area, ties to the
// first seeded.
func (c *Catalog) CheapestAnchor(areaID string) (*models.Anchor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var best *models.Anchor
	for _, a := range c.byArea[areaID] {
		if best == nil || a.TravelCost < best.TravelCost {
			best = a
		}
	}
	return best, best != nil
}

// RefreshCosts re-resolves travel costs for the given anchors from the fee
// source. Costs can depend on the departure point, so the planner calls this
// between areas.
func (c *Catalog) RefreshCosts(ctx context.Context, from models.Point, anchors []*models.Anchor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range anchors {
		fee := c.fees.TeleportFee(from, a)
		if fee == a.TravelCost {
			continue
		}
		a.TravelCost = fee
		if err := c.repo.UpdateTravelCost(ctx, a.ID, fee); err != nil {
			log.Printf("[FASTTRAVEL] Could not persist cost for anchor %d: %v", a.ID, err)
		}
	}
}

// Areas returns the area ids with at least one anchor.
func (c *Catalog) Areas() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byArea))
	for area := range c.byArea {
		out = append(out, area)
	}
	return out
}
