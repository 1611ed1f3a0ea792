package fasttravel

import (
	"log"
	"sync"

	"treasure-route-planner/internal/models"
)

// ManualLocation is a LocationProvider fed by the host (or the HTTP API)
// rather than a live game-client query. It may hold nothing; the planner
// substitutes a synthetic origin in that case.
type ManualLocation struct {
	mu  sync.RWMutex
	loc *models.Coordinate
}

// NewManualLocation creates an empty location source.
func NewManualLocation() *ManualLocation {
	return &ManualLocation{}
}

// Set records the player position.
func (m *ManualLocation) Set(areaID string, x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loc = &models.Coordinate{AreaID: areaID, X: x, Y: y, Kind: models.KindTarget}
	log.Printf("[FASTTRAVEL] Player location set: area=%s (%.1f,%.1f)", areaID, x, y)
}

// Clear forgets the player position.
func (m *ManualLocation) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loc = nil
}

// CurrentLocation returns the last reported position, if any.
func (m *ManualLocation) CurrentLocation() (*models.Coordinate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loc == nil {
		return nil, false
	}
	c := *m.loc
	return &c, true
}
