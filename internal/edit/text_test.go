package edit

import (
	"strings"
	"testing"

	"github.com/dgallion1/deckedit/internal/pptx/pptxtest"
	"github.com/dgallion1/deckedit/internal/xmltree"
)

func parseSlide(t *testing.T, src string) *xmltree.Node {
	t.Helper()
	root, err := xmltree.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse slide: %v", err)
	}
	return root
}

func TestReplaceText_AllRuns(t *testing.T) {
	root := parseSlide(t, pptxtest.Slide("", "Hello World", "World Peace"))
	n, err := ReplaceText(root, "World", "Earth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 replacements, got %d", n)
	}
	got := RunTexts(root)
	want := []string{"Hello Earth", "Earth Peace"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReplaceText_NoMatch(t *testing.T) {
	src := pptxtest.Slide("", "Hello World", "World Peace")
	root := parseSlide(t, src)
	before := parseSlide(t, src)

	n, err := ReplaceText(root, "NotPresent", "X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 replacements, got %d", n)
	}
	if !xmltree.Equal(root, before) {
		t.Error("expected tree unchanged")
	}
}

func TestReplaceText_Variants(t *testing.T) {
	src := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody><a:p>
  <a:r><a:t>cat cat</a:t></a:r>
  <a:r><a:t xml:space="preserve"> cat </a:t></a:r>
  <a:fld id="{1}" type="slidenum"><a:t>cat</a:t></a:fld>
</a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	root := parseSlide(t, src)

	n, err := ReplaceText(root, "cat", "dog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 replacements, got %d", n)
	}
	got := RunTexts(root)
	want := []string{"dog dog", " dog ", "dog"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}

	// The attributed run keeps its attribute.
	var preserved int
	xmltree.Walk(root, func(n *xmltree.Node) bool {
		if v, ok := n.Attr("xml:space"); ok && v == "preserve" {
			preserved++
		}
		return true
	})
	if preserved != 1 {
		t.Errorf("expected xml:space to survive, found %d", preserved)
	}
}

func TestReplaceText_LiteralMatching(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		old     string
		new     string
		want    string
		matches int
	}{
		{"regex metacharacters", "cost: $5.00 (approx)", "$5.00 (approx)", "$6", "cost: $6", 1},
		{"dot is not a wildcard", "a.c abc", "a.c", "X", "X abc", 1},
		{"case sensitive", "World world WORLD", "world", "earth", "World earth WORLD", 1},
		{"non-overlapping", "aaaa", "aa", "b", "bb", 2},
		{"replacement contains target", "ab", "a", "aa", "aab", 1},
		{"delete", "Hello, World", ", World", "", "Hello", 1},
		{"markup characters", "x < y", "<", "&", "x & y", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := parseSlide(t, pptxtest.Slide("", tc.text))
			n, err := ReplaceText(root, tc.old, tc.new)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tc.matches {
				t.Errorf("expected %d replacements, got %d", tc.matches, n)
			}
			if got := RunTexts(root); len(got) != 1 || got[0] != tc.want {
				t.Errorf("expected %q, got %v", tc.want, got)
			}
		})
	}
}

func TestReplaceText_EmptyOldTextRejected(t *testing.T) {
	root := parseSlide(t, pptxtest.Slide("", "abc"))
	if _, err := ReplaceText(root, "", "x"); !IsBadCommand(err) {
		t.Errorf("expected invalid command error, got %v", err)
	}
}

func TestReplaceText_IgnoresNonRunText(t *testing.T) {
	src := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld name="World"><p:spTree><p:sp><p:nvSpPr><p:cNvPr id="2" name="World"/></p:nvSpPr></p:sp></p:spTree></p:cSld>
<p:timing><p:tnLst><p:par><p:attrName>World</p:attrName></p:par></p:tnLst></p:timing></p:sld>`
	root := parseSlide(t, src)
	n, err := ReplaceText(root, "World", "Earth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected attributes and non-run elements untouched, got %d replacements", n)
	}
}

func TestReplaceText_CustomPrefix(t *testing.T) {
	src := `<pml:sld xmlns:d="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:pml="http://schemas.openxmlformats.org/presentationml/2006/main">
<pml:cSld><pml:spTree><pml:sp><pml:txBody><d:p><d:r><d:t>old</d:t></d:r></d:p></pml:txBody></pml:sp></pml:spTree></pml:cSld></pml:sld>`
	root := parseSlide(t, src)
	n, err := ReplaceText(root, "old", "new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 replacement, got %d", n)
	}
}
