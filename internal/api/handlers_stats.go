package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Claude == nil || s.deps.Claude.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"model": s.deps.Claude.Model(),
		"stats": s.deps.Claude.Stats.Snapshot(),
	}
	if s.deps.Orchestrator != nil {
		resp["queue_depth"] = s.deps.Orchestrator.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}
