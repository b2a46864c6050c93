package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/pipeline"
)

const maxJSONBody = 1 << 20

const noMatchWarning = "no text matched; the deck was not changed"

// handleCommand applies a structured command synchronously.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var cmd edit.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		jsonError(w, "invalid command: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.deps.Editor.Apply(r.Context(), pipeline.EditRequest{
		DeckID:  deckID,
		Source:  journal.SourceCommand,
		Command: cmd,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body := map[string]any{"result": res}
	if !res.Matched {
		body["warning"] = noMatchWarning
	}
	writeJSON(w, http.StatusOK, body)
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

// handleInstruction queues a natural-language instruction.
func (s *Server) handleInstruction(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "instruction pipeline unavailable", http.StatusServiceUnavailable)
		return
	}
	deckID := chi.URLParam(r, "deckID")
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req instructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Instruction = strings.TrimSpace(req.Instruction)
	if req.Instruction == "" {
		jsonError(w, "instruction is required", http.StatusBadRequest)
		return
	}

	job, err := s.deps.Orchestrator.Submit(deckID, req.Instruction)
	if err != nil {
		code := statusFor(err)
		if job != nil {
			// Accepted into the store but rejected by the queue.
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"deck_id":  job.DeckID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if _, err := s.deps.Decks.Get(deckID); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.deps.History == nil {
		writeJSON(w, http.StatusOK, map[string]any{"edits": []journal.Entry{}})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}
	entries, err := s.deps.History.List(r.Context(), deckID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edits": entries})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Hub == nil {
		jsonError(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}
	deckID := chi.URLParam(r, "deckID")
	if _, err := s.deps.Decks.Get(deckID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.deps.Hub.Serve(w, r, deckID)
}
