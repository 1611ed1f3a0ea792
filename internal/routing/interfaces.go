package routing

import (
	"context"
	"fmt"

	"treasure-route-planner/internal/models"
)

// LocationProvider reports where the player currently is. The second return
// is false when the host has no position to offer; the planner then
// substitutes a synthetic zero location.
type LocationProvider interface {
	CurrentLocation() (*models.Coordinate, bool)
}

// AnchorProvider exposes the fast-travel network. Travel costs may be stale
// until RefreshCosts is called; the planner refreshes between areas because
// costs can depend on the departure point.
type AnchorProvider interface {
	CheapestAnchor(areaID string) (*models.Anchor, bool)
	AllAnchors(areaID string) []*models.Anchor
	RefreshCosts(ctx context.Context, from models.Point, anchors []*models.Anchor)
}

// Observer receives route lifecycle notifications. These are observational
// callbacks for the host (refresh a list, post a message), not part of the
// algorithmic contract.
type Observer interface {
	RouteOptimized(targetCount int)
	RouteReset()
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) RouteOptimized(int) {}
func (NopObserver) RouteReset()        {}

// Weights tunes the next-area scoring heuristic. Lower score wins; the three
// terms are normalized to [0,1] before weighting. The defaults are hand-tuned,
// not a contract.
type Weights struct {
	TeleportCost float64
	Distance     float64
	Density      float64
}

// DefaultWeights returns the production tuning.
func DefaultWeights() Weights {
	return Weights{TeleportCost: 0.5, Distance: 0.3, Density: 0.2}
}

// ErrOptimizeBusy is returned when an optimize call arrives while another is
// still in flight. The operation is retryable; shared annotation state is not
// safe for concurrent writers.
type ErrOptimizeBusy struct{}

func (e *ErrOptimizeBusy) Error() string {
	return "optimization already in progress, retry later"
}

// ErrNoSnapshot is the soft failure for reset without a prior optimization.
// Callers report it as a warning; nothing was changed.
type ErrNoSnapshot struct{}

func (e *ErrNoSnapshot) Error() string {
	return "no pre-optimization snapshot to restore"
}

// Step is one leg of a computed route: a target, optionally reached by first
// teleporting to ViaAnchor. Keeping the anchor as a typed reference (rather
// than an annotation on a shared Coordinate) lets the same coordinate sit in
// multiple hypothetical routes during refinement without aliasing.
type Step struct {
	Target    *models.Coordinate
	ViaAnchor *models.Anchor
	Seconds   float64
}

// Route is the ordered output of optimization. It is a derived, disposable
// view over the pending list.
type Route struct {
	Steps        []Step
	TotalSeconds float64
}

// TargetCount returns the number of targets the route still has to visit,
// excluding the collected entries trailing it.
func (r Route) TargetCount() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Target.Collected {
			n++
		}
	}
	return n
}

// Materialize flattens the route into display coordinates, inserting a
// teleport-hop marker immediately before every target reached via an anchor.
// Target entries that start a hop carry the anchor id for display.
func (r Route) Materialize() []models.Coordinate {
	out := make([]models.Coordinate, 0, len(r.Steps))
	for _, s := range r.Steps {
		c := *s.Target
		c.Kind = models.KindTarget
		if s.ViaAnchor != nil {
			out = append(out, models.Coordinate{
				X:           s.ViaAnchor.X,
				Y:           s.ViaAnchor.Y,
				AreaID:      s.ViaAnchor.AreaID,
				DisplayName: s.ViaAnchor.Name,
				Kind:        models.KindTeleportHop,
				AnchorID:    s.ViaAnchor.ID,
			})
			c.AnchorID = s.ViaAnchor.ID
		}
		out = append(out, c)
	}
	return out
}

// String summarizes a step for logging.
func (s Step) String() string {
	if s.ViaAnchor != nil {
		return fmt.Sprintf("teleport[%s] -> (%.1f,%.1f)", s.ViaAnchor.Name, s.Target.X, s.Target.Y)
	}
	return fmt.Sprintf("(%.1f,%.1f)", s.Target.X, s.Target.Y)
}
