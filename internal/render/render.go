// Package render converts presentations to PDF previews with LibreOffice
// and rasterizes single slides to PNG with pdftoppm.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	pdflib "github.com/ledongthuc/pdf"
)

var (
	// ErrUnavailable is returned when a converter binary cannot be found.
	ErrUnavailable = errors.New("converter not available")
	// ErrNoSuchPage is returned for a slide number outside the rendered PDF.
	ErrNoSuchPage = errors.New("no such page")
)

// DefaultResolution is the pdftoppm resolution for slide images, in DPI.
const DefaultResolution = 96

// Preview is a rendered PDF.
type Preview struct {
	Path   string `json:"-"`
	Pages  int    `json:"pages"`
	Cached bool   `json:"cached"`
}

// SlideImage is one slide rasterized to PNG.
type SlideImage struct {
	Path   string `json:"-"`
	Slide  int    `json:"slide"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cached bool   `json:"cached"`
}

// SlideImageName is the file name of the PNG for slide n.
func SlideImageName(n int) string {
	return fmt.Sprintf("slide_%03d.png", n)
}

// Renderer shells out to soffice and pdftoppm. Conversions are serialized because
// concurrent soffice processes sharing a profile fail.
type Renderer struct {
	SofficePath  string
	PdftoppmPath string
	Resolution   int
	Timeout      time.Duration
	log          *slog.Logger

	mu sync.Mutex
}

func NewRenderer(sofficePath string, timeout time.Duration, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		SofficePath:  sofficePath,
		PdftoppmPath: "pdftoppm",
		Resolution:   DefaultResolution,
		Timeout:      timeout,
		log:          log,
	}
}

// WithRasterizer sets the pdftoppm binary used for slide images.
func (r *Renderer) WithRasterizer(path string) *Renderer {
	if path != "" {
		r.PdftoppmPath = path
	}
	return r
}

// Available reports whether the converter binary can be found.
func (r *Renderer) Available() bool {
	_, err := exec.LookPath(r.SofficePath)
	return err == nil
}

// PDF renders deckPath into outDir and returns the resulting file. A PDF
// newer than the deck is reused.
func (r *Renderer) PDF(ctx context.Context, deckPath, outDir string) (Preview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pdfLocked(ctx, deckPath, outDir)
}

func (r *Renderer) pdfLocked(ctx context.Context, deckPath, outDir string) (Preview, error) {
	bin, err := exec.LookPath(r.SofficePath)
	if err != nil {
		return Preview{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	deckInfo, err := os.Stat(deckPath)
	if err != nil {
		return Preview{}, fmt.Errorf("stat deck: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(deckPath), filepath.Ext(deckPath))
	out := filepath.Join(outDir, base+".pdf")

	if info, err := os.Stat(out); err == nil && !info.ModTime().Before(deckInfo.ModTime()) {
		pages, err := PageCount(out)
		if err == nil {
			return Preview{Path: out, Pages: pages, Cached: true}, nil
		}
		r.log.Warn("cached preview unreadable, re-rendering", "path", out, "error", err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, deckPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Preview{}, fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pages, err := PageCount(out)
	if err != nil {
		return Preview{}, fmt.Errorf("verify pdf: %w", err)
	}
	r.log.Info("preview rendered", "deck", deckPath, "pages", pages, "duration_ms", time.Since(start).Milliseconds())
	return Preview{Path: out, Pages: pages}, nil
}

// SlideImage renders slide n (1-based) of deckPath to outDir/slide_NNN.png.
// The deck is converted to PDF first and page n of that PDF is rasterized.
// An image newer than the PDF is reused.
func (r *Renderer) SlideImage(ctx context.Context, deckPath, outDir string, n int) (SlideImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bin, err := exec.LookPath(r.PdftoppmPath)
	if err != nil {
		return SlideImage{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	pdf, err := r.pdfLocked(ctx, deckPath, outDir)
	if err != nil {
		return SlideImage{}, err
	}
	if n < 1 || n > pdf.Pages {
		return SlideImage{}, fmt.Errorf("%w: slide %d of %d", ErrNoSuchPage, n, pdf.Pages)
	}

	out := filepath.Join(outDir, SlideImageName(n))
	pdfInfo, err := os.Stat(pdf.Path)
	if err != nil {
		return SlideImage{}, fmt.Errorf("stat pdf: %w", err)
	}
	if info, err := os.Stat(out); err == nil && !info.ModTime().Before(pdfInfo.ModTime()) {
		img, err := readPNG(out, n)
		if err == nil {
			img.Cached = true
			return img, nil
		}
		r.log.Warn("cached slide image unreadable, re-rendering", "path", out, "error", err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	res := r.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	page := strconv.Itoa(n)
	// -singlefile writes <prefix>.png without a page-number suffix.
	cmd := exec.CommandContext(ctx, bin, "-png", "-r", strconv.Itoa(res), "-f", page, "-l", page,
		"-singlefile", pdf.Path, strings.TrimSuffix(out, ".png"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return SlideImage{}, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	img, err := readPNG(out, n)
	if err != nil {
		return SlideImage{}, fmt.Errorf("verify png: %w", err)
	}
	r.log.Info("slide image rendered", "deck", deckPath, "slide", n, "width", img.Width, "height", img.Height)
	return img, nil
}

func readPNG(path string, n int) (SlideImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return SlideImage{}, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return SlideImage{}, err
	}
	return SlideImage{Path: path, Slide: n, Width: cfg.Width, Height: cfg.Height}, nil
}

// PageCount opens the PDF at path and returns its number of pages.
func PageCount(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n := reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("pdf %s has no pages", filepath.Base(path))
	}
	return n, nil
}
