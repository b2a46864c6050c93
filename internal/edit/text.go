package edit

import (
	"strings"

	"github.com/dgallion1/deckedit/internal/xmltree"
)

// Namespace URIs used to find the prefixes a slide part binds.
const (
	NSDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

// prefixFor returns the prefix root binds to uri, or def when none is
// declared on the root.
func prefixFor(root *xmltree.Node, uri, def string) string {
	if p, ok := root.PrefixFor(uri); ok {
		return p
	}
	return def
}

// ReplaceText replaces every literal, case-sensitive occurrence of oldText
// with newText in each DrawingML text run (a:t) under root and returns the
// number of replacements. Occurrences split across runs are not matched.
// Zero replacements is not an error.
func ReplaceText(root *xmltree.Node, oldText, newText string) (int, error) {
	if oldText == "" {
		return 0, &InvalidCommandError{Reason: "oldText is required"}
	}
	run := xmltree.QName(prefixFor(root, NSDrawingML, "a"), "t")

	total := 0
	xmltree.Walk(root, func(n *xmltree.Node) bool {
		if n.Name != run {
			return true
		}
		content, ok := n.Content()
		if !ok {
			return false
		}
		count := strings.Count(content.Value(), oldText)
		if count == 0 {
			return false
		}
		total += count

		switch t := content.(type) {
		case xmltree.PlainText:
			n.SetContent(xmltree.PlainText(strings.ReplaceAll(string(t), oldText, newText)))
		case xmltree.AttributedText:
			t.Text = strings.ReplaceAll(t.Text, oldText, newText)
			n.SetContent(t)
		}
		return false
	})
	return total, nil
}

// RunTexts returns the content of every text run under root in document
// order.
func RunTexts(root *xmltree.Node) []string {
	run := xmltree.QName(prefixFor(root, NSDrawingML, "a"), "t")
	var out []string
	xmltree.Walk(root, func(n *xmltree.Node) bool {
		if n.Name != run {
			return true
		}
		if c, ok := n.Content(); ok {
			out = append(out, c.Value())
		}
		return false
	})
	return out
}
