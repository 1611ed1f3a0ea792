package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"treasure-route-planner/internal/routing"
)

// HandleOptimizeRoute handles POST /api/v1/route/optimize.
func (h *Handler) HandleOptimizeRoute(w http.ResponseWriter, r *http.Request) {
	route, err := h.Tracker.Optimize(r.Context())
	if err != nil {
		var busy *routing.ErrOptimizeBusy
		if errors.As(err, &busy) {
			log.Printf("[HTTP] POST /api/v1/route/optimize: busy")
			h.writeError(w, http.StatusConflict, "OPTIMIZE_BUSY", err.Error(), nil)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"route": route,
	})
}

// HandleResetRoute handles POST /api/v1/route/reset. Reset without a
// snapshot is a no-op reported as a warning, not a failure.
func (h *Handler) HandleResetRoute(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.Reset(r.Context()); err != nil {
		var none *routing.ErrNoSnapshot
		if errors.As(err, &none) {
			h.writeJSON(w, http.StatusOK, map[string]interface{}{
				"pending": h.Tracker.Pending(),
				"warning": err.Error(),
			})
			return
		}
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": h.Tracker.Pending(),
	})
}

// HandleGetRoute handles GET /api/v1/route.
func (h *Handler) HandleGetRoute(w http.ResponseWriter, r *http.Request) {
	route := h.Tracker.Route()
	if route == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"route": []interface{}{},
			"stale": true,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"route": route,
		"stale": false,
	})
}

// HandleListAnchors handles GET /api/v1/anchors?area=...
func (h *Handler) HandleListAnchors(w http.ResponseWriter, r *http.Request) {
	area := r.URL.Query().Get("area")
	if area == "" {
		h.handleValidationError(w, "Missing area parameter")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"anchors": h.Catalog.AllAnchors(area),
	})
}

// LocationRequest is the payload for reporting the player position.
type LocationRequest struct {
	AreaID string  `json:"area_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// HandleSetLocation handles PUT /api/v1/location; DELETE clears it.
func (h *Handler) HandleSetLocation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req LocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.handleValidationError(w, "Invalid request body")
			return
		}
		if req.AreaID == "" {
			h.handleValidationError(w, "Missing area_id")
			return
		}
		h.Location.Set(req.AreaID, req.X, req.Y)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case http.MethodDelete:
		h.Location.Clear()
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
