package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/notepress/internal/graph"
	"github.com/go-chi/chi/v5"
)

// handleListPages lists every page in the destination section.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.orchestrator.Client().ListPages(r.Context(), s.orchestrator.SectionID())
	if err != nil {
		jsonError(w, "failed to list pages: "+err.Error(), http.StatusBadGateway)
		return
	}
	if pages == nil {
		pages = []graph.PageRef{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"pages": pages})
}

// handleDeletePage removes one page by id.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	if err := s.orchestrator.Client().DeletePage(r.Context(), pageID); err != nil {
		jsonError(w, "failed to delete page: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": pageID})
}

// handlePurgePages wipes the destination section, throttled between
// deletions.
func (s *Server) handlePurgePages(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.orchestrator.Client().DeleteAllPages(r.Context(), s.orchestrator.SectionID(), s.cfg.Throttle)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"deleted": deleted,
			"error":   err.Error(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": deleted})
}
