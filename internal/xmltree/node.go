package xmltree

// Kind distinguishes element nodes from the character data and comments
// that can sit between them.
type Kind int

const (
	ElementNode Kind = iota
	CharDataNode
	CommentNode
)

// Attr is a single attribute. Name keeps its namespace prefix verbatim,
// e.g. "xmlns:a" or "r:id".
type Attr struct {
	Name  string
	Value string
}

// Node is one parsed XML element, or a run of character data or a comment
// inside an element. Element names keep their prefix ("p:sld", "a:t").
type Node struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Children []*Node

	// Data holds the content of CharDataNode and CommentNode.
	Data string
}

// NewElement returns an empty element with the given qualified name.
func NewElement(name string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Name: name, Attrs: attrs}
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr overwrites the named attribute or appends it.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// ChildrenNamed returns every child element called name, in document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first child element called name, or nil.
func (n *Node) First(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// Elements returns the element children, skipping text and comments.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// RemoveChildren drops every child element whose name is in names and
// reports how many were removed.
func (n *Node) RemoveChildren(names ...string) int {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	kept := n.Children[:0]
	removed := 0
	for _, c := range n.Children {
		if c.Kind == ElementNode && drop[c.Name] {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = kept
	return removed
}

// Append adds child as the last child of n.
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// InsertAt puts child at index i among all children, clamped to the ends.
func (n *Node) InsertAt(i int, child *Node) {
	if i < 0 {
		i = 0
	}
	if i >= len(n.Children) {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// Prefix returns the namespace prefix of the element name, "" when unprefixed.
func (n *Node) Prefix() string {
	prefix, _ := splitName(n.Name)
	return prefix
}

// Local returns the element name without its prefix.
func (n *Node) Local() string {
	_, local := splitName(n.Name)
	return local
}

// PrefixFor returns the prefix bound to uri by an xmlns declaration on n.
func (n *Node) PrefixFor(uri string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Value != uri {
			continue
		}
		if a.Name == "xmlns" {
			return "", true
		}
		if p, local := splitName(a.Name); p == "xmlns" {
			return local, true
		}
	}
	return "", false
}

// Walk calls fn for n and every descendant element, depth first in document
// order. Returning false from fn skips that element's subtree.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || n.Kind != ElementNode {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

func splitName(name string) (prefix, local string) {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

// QName joins prefix and local into a qualified name.
func QName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
