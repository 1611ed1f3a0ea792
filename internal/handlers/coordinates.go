package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"treasure-route-planner/internal/models"
	"treasure-route-planner/internal/tracker"
)

// CoordinateRequest is the payload for adding a coordinate. Entries arrive
// already parsed; this boundary only validates them.
type CoordinateRequest struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	AreaID      string  `json:"area_id"`
	DisplayName string  `json:"display_name"`
	OwnerName   string  `json:"owner_name"`
}

func (req *CoordinateRequest) toModel() *models.Coordinate {
	return &models.Coordinate{
		X:           req.X,
		Y:           req.Y,
		AreaID:      req.AreaID,
		DisplayName: req.DisplayName,
		OwnerName:   req.OwnerName,
		Kind:        models.KindTarget,
	}
}

// HandleListCoordinates handles GET /api/v1/coordinates.
func (h *Handler) HandleListCoordinates(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": h.Tracker.Pending(),
		"deleted": h.Tracker.Deleted(),
	})
}

// HandleAddCoordinate handles POST /api/v1/coordinates.
func (h *Handler) HandleAddCoordinate(w http.ResponseWriter, r *http.Request) {
	var req CoordinateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/coordinates: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	c := req.toModel()
	if err := h.Tracker.Add(r.Context(), c); err != nil {
		var invalid *models.ErrInvalidCoordinate
		if errors.As(err, &invalid) {
			h.handleValidationError(w, invalid.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}

	h.writeJSON(w, http.StatusCreated, c)
}

// HandleImportCoordinates handles POST /api/v1/coordinates/import with a JSON
// array of coordinate records. Invalid entries are skipped and reported.
func (h *Handler) HandleImportCoordinates(w http.ResponseWriter, r *http.Request) {
	var reqs []CoordinateRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		log.Printf("[HTTP] POST /api/v1/coordinates/import: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	imported := 0
	var skipped []string
	for i := range reqs {
		c := reqs[i].toModel()
		if err := h.Tracker.Add(r.Context(), c); err != nil {
			log.Printf("[HTTP] Import skipped entry %d: %v", i, err)
			skipped = append(skipped, err.Error())
			continue
		}
		imported++
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": imported,
		"skipped":  skipped,
	})
}

// HandleClearCoordinates handles DELETE /api/v1/coordinates.
func (h *Handler) HandleClearCoordinates(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.ClearAll(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleCoordinateAction dispatches index-addressed mutations:
//
//	DELETE /api/v1/coordinates/{index}
//	POST   /api/v1/coordinates/{index}/restore
//	POST   /api/v1/coordinates/{index}/collect
func (h *Handler) HandleCoordinateAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/coordinates/")
	parts := strings.Split(rest, "/")

	index, err := strconv.Atoi(parts[0])
	if err != nil {
		h.handleValidationError(w, "Invalid coordinate index")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		err = h.Tracker.Delete(r.Context(), index)
	case action == "restore" && r.Method == http.MethodPost:
		err = h.Tracker.Restore(r.Context(), index)
	case action == "collect" && r.Method == http.MethodPost:
		err = h.Tracker.MarkCollected(r.Context(), index)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err != nil {
		var oob *tracker.ErrIndexOutOfRange
		if errors.As(err, &oob) {
			h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": h.Tracker.Pending(),
		"deleted": h.Tracker.Deleted(),
	})
}
