// Package pptx reads and rewrites the zip container of a presentation.
package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// PresentationPart must exist in every presentation package.
const PresentationPart = "ppt/presentation.xml"

// ErrEntryNotFound is returned when a named entry is absent from the package.
var ErrEntryNotFound = errors.New("entry not found")

var slidePattern = regexp.MustCompile(`^ppt/slides/slide([0-9]+)\.xml$`)

// SlideEntry returns the archive entry name of 1-based slide n.
func SlideEntry(n int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", n)
}

type entry struct {
	file *zip.File // nil for entries added by Put
	name string
	data []byte // replacement content, nil when unchanged
}

// Package is an in-memory view of a presentation archive. Entries keep
// their original order; unchanged entries are copied through on Save
// without being recompressed.
type Package struct {
	zr      *zip.Reader
	entries []*entry
	index   map[string]*entry
}

// Open reads the archive at path. The file is not held open afterwards.
func Open(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	return Read(data)
}

// Read parses an archive held in memory.
func Read(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	p := &Package{
		zr:    zr,
		index: make(map[string]*entry, len(zr.File)),
	}
	for _, f := range zr.File {
		e := &entry{file: f, name: f.Name}
		p.entries = append(p.entries, e)
		p.index[f.Name] = e
	}
	return p, nil
}

// Has reports whether the package contains the named entry.
func (p *Package) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Entry returns the content of the named entry.
func (p *Package) Entry(name string) ([]byte, error) {
	e, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrEntryNotFound)
	}
	if e.data != nil {
		return e.data, nil
	}
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

// Put replaces the content of the named entry, adding it when absent.
func (p *Package) Put(name string, data []byte) {
	if data == nil {
		data = []byte{}
	}
	if e, ok := p.index[name]; ok {
		e.data = data
		return
	}
	e := &entry{name: name, data: data}
	p.entries = append(p.entries, e)
	p.index[name] = e
}

// Names lists entry names in archive order.
func (p *Package) Names() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.name
	}
	return out
}

// Slides returns the slide numbers present, ascending.
func (p *Package) Slides() []int {
	var nums []int
	for _, e := range p.entries {
		m := slidePattern.FindStringSubmatch(e.name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// HasSlide reports whether slide n exists.
func (p *Package) HasSlide(n int) bool {
	return n >= 1 && p.Has(SlideEntry(n))
}

// WriteTo writes the archive to w.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, e := range p.entries {
		if e.data == nil {
			if err := zw.Copy(e.file); err != nil {
				return cw.n, fmt.Errorf("copy %s: %w", e.name, err)
			}
			continue
		}
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		if e.file != nil {
			hdr.Modified = e.file.Modified
			hdr.Method = e.file.Method
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return cw.n, fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finish zip: %w", err)
	}
	return cw.n, nil
}

// Save writes the archive to path atomically: a temp file in the same
// directory is written, synced and renamed over path. On error path is
// left untouched.
func (p *Package) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := p.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpPath, info.Mode().Perm())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
