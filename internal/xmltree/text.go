package xmltree

import "strings"

// Text is the content of a text-bearing leaf element. It is either
// PlainText, for an element without attributes, or AttributedText, for one
// that carries attributes alongside its text (e.g. xml:space="preserve").
type Text interface {
	Value() string
	isText()
}

// PlainText is the content of a leaf element with no attributes.
type PlainText string

func (t PlainText) Value() string { return string(t) }
func (PlainText) isText()         {}

// AttributedText is the content of a leaf element that has attributes.
type AttributedText struct {
	Text  string
	Attrs []Attr
}

func (t AttributedText) Value() string { return t.Text }
func (AttributedText) isText()         {}

// Content returns the text variant of a leaf element. ok is false when n
// has element children, so it is not text-bearing.
func (n *Node) Content() (t Text, ok bool) {
	if n.Kind != ElementNode {
		return nil, false
	}
	var sb strings.Builder
	for _, c := range n.Children {
		switch c.Kind {
		case ElementNode:
			return nil, false
		case CharDataNode:
			sb.WriteString(c.Data)
		}
	}
	if len(n.Attrs) == 0 {
		return PlainText(sb.String()), true
	}
	return AttributedText{Text: sb.String(), Attrs: n.Attrs}, true
}

// SetContent replaces the character data of a leaf element with a single
// text child. An AttributedText also replaces the attribute list; PlainText
// leaves the attributes alone. Comments inside the element are dropped, since
// their position within the old text has no counterpart in the new one.
func (n *Node) SetContent(t Text) {
	n.Children = nil
	if at, ok := t.(AttributedText); ok {
		n.Attrs = at.Attrs
	}
	if v := t.Value(); v != "" {
		n.Children = append(n.Children, &Node{Kind: CharDataNode, Data: v})
	}
}
