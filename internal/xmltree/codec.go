// Package xmltree is a small generic XML tree for slide parts. It keeps
// namespace prefixes verbatim and child order intact so a parsed part can be
// edited and written back without disturbing the content it did not touch.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrMalformed is wrapped by every error Parse returns for input that is not
// a well-formed XML document.
var ErrMalformed = errors.New("malformed document")

// Declaration is written in front of every serialized tree.
const Declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads one XML document into a tree rooted at its document element.
//
// Whitespace-only character data is dropped from elements that have element
// children and kept in leaf elements. Processing instructions other than
// the declaration, directives and comments outside the root are dropped, as
// is a leading UTF-8 byte order mark.
func Parse(data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, fmt.Errorf("%w: second root element <%s>", ErrMalformed, QName(t.Name.Space, t.Name.Local))
			}
			n := &Node{Kind: ElementNode, Name: QName(t.Name.Space, t.Name.Local)}
			if len(t.Attr) > 0 {
				n.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					n.Attrs[i] = Attr{Name: QName(a.Name.Space, a.Name.Local), Value: a.Value}
				}
			}
			if len(stack) == 0 {
				root = n
			} else {
				stack[len(stack)-1].Append(n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := QName(t.Name.Space, t.Name.Local)
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrMalformed, name)
			}
			top := stack[len(stack)-1]
			if top.Name != name {
				return nil, fmt.Errorf("%w: element <%s> closed by </%s>", ErrMalformed, top.Name, name)
			}
			trimLayout(top)
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside root element", ErrMalformed)
				}
				continue
			}
			top := stack[len(stack)-1]
			if k := len(top.Children); k > 0 && top.Children[k-1].Kind == CharDataNode {
				top.Children[k-1].Data += string(t)
				continue
			}
			top.Append(&Node{Kind: CharDataNode, Data: string(t)})

		case xml.Comment:
			if len(stack) > 0 {
				stack[len(stack)-1].Append(&Node{Kind: CommentNode, Data: string(t)})
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return root, nil
}

// trimLayout drops indentation between child elements.
func trimLayout(n *Node) {
	hasElement := false
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			hasElement = true
			break
		}
	}
	if !hasElement {
		return
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind == CharDataNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

// Serialize renders root as a UTF-8 document with a standalone declaration.
func Serialize(root *Node) []byte {
	var buf bytes.Buffer
	buf.WriteString(Declaration)
	buf.WriteString("\r\n")
	writeNode(&buf, root)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case CharDataNode:
		xml.EscapeText(buf, []byte(n.Data))
		return
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
		return
	}

	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.Children {
		writeNode(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteByte('>')
}

// Equal reports whether a and b have the same structure: names, attribute
// sets, child order and text. Attribute order is ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name || a.Data != b.Data {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for _, attr := range a.Attrs {
		v, ok := b.Attr(attr.Name)
		if !ok || v != attr.Value {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
