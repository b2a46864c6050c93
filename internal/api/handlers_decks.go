package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/deckedit/internal/deck"
	"github.com/dgallion1/deckedit/internal/render"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pptx") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	meta, err := s.deps.Decks.Create(filename, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("deck uploaded", "deck_id", meta.ID, "filename", meta.Filename, "slides", meta.SlideCount)
	writeJSON(w, http.StatusCreated, meta)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Decks.List()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": list})
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	meta, err := s.deps.Decks.Get(chi.URLParam(r, "deckID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	path, err := s.deps.Decks.Path(chi.URLParam(r, "deckID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	slides, err := deck.InspectFile(path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slides": slides})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	meta, err := s.deps.Decks.Get(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.deps.Decks.Path(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	slides, err := deck.InspectFile(path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	title := strings.TrimSuffix(meta.Filename, filepath.Ext(meta.Filename))

	switch format := r.URL.Query().Get("format"); format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, deck.Outline(title, slides))
	case "html":
		out, err := deck.OutlineHTML(title, slides)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, out)
	default:
		jsonError(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	meta, err := s.deps.Decks.Get(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.deps.Decks.Path(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	serveFile(w, r, path, meta.Filename, pptxContentType)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Renderer == nil {
		jsonError(w, "preview rendering unavailable", http.StatusServiceUnavailable)
		return
	}
	deckID := chi.URLParam(r, "deckID")
	meta, err := s.deps.Decks.Get(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.deps.Decks.Path(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dir, err := s.deps.Decks.Dir(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	preview, err := s.deps.Renderer.PDF(r.Context(), path, dir)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Page-Count", strconv.Itoa(preview.Pages))
	name := strings.TrimSuffix(meta.Filename, filepath.Ext(meta.Filename)) + ".pdf"
	serveFile(w, r, preview.Path, name, "application/pdf")
}

func (s *Server) handleSlidePreview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Renderer == nil {
		jsonError(w, "preview rendering unavailable", http.StatusServiceUnavailable)
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		jsonError(w, "slide must be a positive integer", http.StatusBadRequest)
		return
	}
	deckID := chi.URLParam(r, "deckID")
	path, err := s.deps.Decks.Path(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dir, err := s.deps.Decks.Dir(deckID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	img, err := s.deps.Renderer.SlideImage(r.Context(), path, dir, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Image-Size", fmt.Sprintf("%dx%d", img.Width, img.Height))
	serveFile(w, r, img.Path, render.SlideImageName(n), "image/png")
}

func serveFile(w http.ResponseWriter, r *http.Request, path, name, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		jsonError(w, "failed to open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "failed to stat file", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
