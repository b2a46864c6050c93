package xmltree

// ChildOrder maps a parent element name to the order its children must
// appear in. Names missing from a parent's list sort after the listed ones.
type ChildOrder map[string][]string

// rank returns the position of child under parent, or -1 when unknown.
func (o ChildOrder) rank(parent, child string) int {
	for i, name := range o[parent] {
		if name == child {
			return i
		}
	}
	return -1
}

// Ensure returns the first child element of parent called name, creating it
// when absent. A created element is placed where order says it belongs, or
// appended when order has nothing for this parent.
func Ensure(parent *Node, order ChildOrder, name string) *Node {
	if c := parent.First(name); c != nil {
		return c
	}
	c := NewElement(name)
	parent.InsertAt(insertIndex(parent, order, name), c)
	return c
}

func insertIndex(parent *Node, order ChildOrder, name string) int {
	want := order.rank(parent.Name, name)
	if want < 0 {
		return len(parent.Children)
	}
	for i, c := range parent.Children {
		if c.Kind != ElementNode {
			continue
		}
		r := order.rank(parent.Name, c.Name)
		if r < 0 || r > want {
			return i
		}
	}
	return len(parent.Children)
}

// Resolve walks path down from root and returns the element at its end.
//
// Every step is singleton by convention: the first child with the step's
// name is taken and any further same-named siblings are left alone. A
// missing step is created (see Ensure), so Resolve always succeeds and may
// modify the tree. An empty path returns root.
func Resolve(root *Node, order ChildOrder, path ...string) *Node {
	n := root
	for _, name := range path {
		n = Ensure(n, order, name)
	}
	return n
}

// Find is the read-only form of Resolve. It returns nil as soon as a step
// is missing.
func Find(root *Node, path ...string) *Node {
	n := root
	for _, name := range path {
		if n == nil {
			return nil
		}
		n = n.First(name)
	}
	return n
}
