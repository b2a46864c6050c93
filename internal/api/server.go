package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/deckedit/internal/config"
	"github.com/dgallion1/deckedit/internal/decks"
	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/notify"
	"github.com/dgallion1/deckedit/internal/pipeline"
	"github.com/dgallion1/deckedit/internal/render"
	"github.com/dgallion1/deckedit/internal/translate"
)

// History lists journaled edits.
type History interface {
	List(ctx context.Context, deckID string, limit int) ([]journal.Entry, error)
}

// Deps are the collaborators the server routes to. Orchestrator, Claude,
// Renderer and Hub may be nil; their endpoints then answer 503.
type Deps struct {
	Decks        *decks.Store
	Editor       *pipeline.Editor
	Orchestrator *pipeline.Orchestrator
	History      History
	Hub          *notify.Hub
	Renderer     *render.Renderer
	Claude       *translate.ClaudeClient
}

// Server is the HTTP API server for deckedit.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DeckeditAPIKey, s.log))

		r.Route("/api/decks", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleListDecks)
			r.Route("/{deckID}", func(r chi.Router) {
				r.Get("/", s.handleGetDeck)
				r.Get("/slides", s.handleSlides)
				r.Get("/slides/{n}/preview", s.handleSlidePreview)
				r.Get("/outline", s.handleOutline)
				r.Get("/download", s.handleDownload)
				r.Get("/preview", s.handlePreview)
				r.Post("/commands", s.handleCommand)
				r.Post("/instructions", s.handleInstruction)
				r.Get("/history", s.handleHistory)
				r.Get("/events", s.handleEvents)
			})
		})
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, decks.ErrNotFound), edit.IsSlideNotFound(err), errors.Is(err, render.ErrNoSuchPage):
		return http.StatusNotFound
	case edit.IsBadCommand(err), errors.Is(err, decks.ErrNotPresentation):
		return http.StatusBadRequest
	case errors.Is(err, edit.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, render.ErrUnavailable), errors.Is(err, pipeline.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	jsonError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed.pptx"
	}
	return name
}
