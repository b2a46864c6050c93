// Package deck derives read-only views of a presentation: per-slide text
// and background, and a Markdown outline.
package deck

import (
	"fmt"
	"strings"

	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/pptx"
	"github.com/dgallion1/deckedit/internal/xmltree"
)

// SlideText is the visible text of one slide.
type SlideText struct {
	Number     int      `json:"slide"`
	Texts      []string `json:"texts"`
	Background string   `json:"background,omitempty"`
}

// Inspect reads every slide of pkg in slide-number order. Each entry of
// Texts is one paragraph: its runs joined together.
func Inspect(pkg *pptx.Package) ([]SlideText, error) {
	var out []SlideText
	for _, n := range pkg.Slides() {
		data, err := pkg.Entry(pptx.SlideEntry(n))
		if err != nil {
			return nil, err
		}
		root, err := xmltree.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", n, err)
		}
		out = append(out, SlideText{
			Number:     n,
			Texts:      paragraphs(root),
			Background: edit.Background(root),
		})
	}
	return out, nil
}

// InspectFile opens the package at path and inspects it.
func InspectFile(path string) ([]SlideText, error) {
	pkg, err := pptx.Open(path)
	if err != nil {
		return nil, err
	}
	return Inspect(pkg)
}

func paragraphs(root *xmltree.Node) []string {
	a := "a"
	if p, ok := root.PrefixFor(edit.NSDrawingML); ok {
		a = p
	}
	para := xmltree.QName(a, "p")
	brk := xmltree.QName(a, "br")

	texts := []string{}
	xmltree.Walk(root, func(n *xmltree.Node) bool {
		if n.Name != para {
			return true
		}
		var sb strings.Builder
		xmltree.Walk(n, func(c *xmltree.Node) bool {
			if c.Name == brk {
				sb.WriteString("\n")
				return false
			}
			if c.Local() != "t" || c.Prefix() != a {
				return true
			}
			if t, ok := c.Content(); ok {
				sb.WriteString(t.Value())
			}
			return false
		})
		if s := strings.TrimSpace(sb.String()); s != "" {
			texts = append(texts, s)
		}
		return false
	})
	return texts
}
