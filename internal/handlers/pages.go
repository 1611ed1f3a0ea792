package handlers

import (
	"log"
	"net/http"
)

// IndexPageData feeds the single-page template.
type IndexPageData struct {
	PendingCount int
	DeletedCount int
	HasRoute     bool
}

// HandleIndexPage handles GET /.
func (h *Handler) HandleIndexPage(w http.ResponseWriter, r *http.Request) {
	data := IndexPageData{
		PendingCount: len(h.Tracker.Pending()),
		DeletedCount: len(h.Tracker.Deleted()),
		HasRoute:     h.Tracker.Route() != nil,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("[HTTP] Failed to render index: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
