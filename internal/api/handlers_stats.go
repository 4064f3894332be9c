package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleDeliveryStats(w http.ResponseWriter, r *http.Request) {
	client := s.orchestrator.Client()
	if client == nil || client.Stats == nil {
		jsonError(w, "delivery stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       client.Stats.Snapshot(),
	})
}
