// Package decks stores uploaded presentations on disk, one directory per deck.
package decks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/deckedit/internal/pptx"
)

const (
	deckFile = "deck.pptx"
	metaFile = "meta.json"
)

var (
	// ErrNotFound is returned for an unknown deck id.
	ErrNotFound = errors.New("deck not found")
	// ErrNotPresentation is returned when an upload is not a PPTX package.
	ErrNotPresentation = errors.New("upload is not a presentation")
)

// Meta describes a stored deck.
type Meta struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	SlideCount int       `json:"slide_count"`
}

// Store keeps decks under <root>/decks/<id>/.
type Store struct {
	dir string
}

// NewStore creates the decks directory under dataDir if needed.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "decks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create decks dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create validates data as a presentation and stores it under a new id.
func (s *Store) Create(filename string, data []byte) (Meta, error) {
	pkg, err := pptx.Read(data)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	if !pkg.Has(pptx.PresentationPart) {
		return Meta{}, fmt.Errorf("%w: missing %s", ErrNotPresentation, pptx.PresentationPart)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Meta{}, fmt.Errorf("generate id: %w", err)
	}
	meta := Meta{
		ID:         id.String(),
		Filename:   filepath.Base(filename),
		UploadedAt: time.Now().UTC(),
		SlideCount: len(pkg.Slides()),
	}

	dir := filepath.Join(s.dir, meta.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("create deck dir: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, deckFile), bytes.NewReader(data)); err != nil {
		os.RemoveAll(dir)
		return Meta{}, err
	}
	if err := s.writeMeta(meta); err != nil {
		os.RemoveAll(dir)
		return Meta{}, err
	}
	return meta, nil
}

// Get returns the metadata for id.
func (s *Store) Get(id string) (Meta, error) {
	if !validID(id) {
		return Meta{}, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id, metaFile))
	if errors.Is(err, os.ErrNotExist) {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, fmt.Errorf("read meta: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("decode meta %s: %w", id, err)
	}
	return m, nil
}

// Path returns the presentation file for id.
func (s *Store) Path(id string) (string, error) {
	if _, err := s.Get(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id, deckFile), nil
}

// Dir returns the working directory for id, used for rendered artifacts.
func (s *Store) Dir(id string) (string, error) {
	if _, err := s.Get(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id), nil
}

// Refresh re-reads the slide count after an edit.
func (s *Store) Refresh(id string) (Meta, error) {
	m, err := s.Get(id)
	if err != nil {
		return Meta{}, err
	}
	pkg, err := pptx.Open(filepath.Join(s.dir, id, deckFile))
	if err != nil {
		return Meta{}, err
	}
	if n := len(pkg.Slides()); n != m.SlideCount {
		m.SlideCount = n
		if err := s.writeMeta(m); err != nil {
			return Meta{}, err
		}
	}
	return m, nil
}

// List returns every deck, newest upload first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read decks dir: %w", err)
	}
	out := []Meta{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := s.Get(e.Name())
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (s *Store) writeMeta(m Meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return writeAtomic(filepath.Join(s.dir, m.ID, metaFile), bytes.NewReader(data))
}

func validID(id string) bool {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
