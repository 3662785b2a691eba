// Package graph provides the cell reference graph used for selective
// extraction.
//
// Each node stands for one cell; an edge from parent to child records that
// the parent places the child. Placement graphs in real files are DAGs, but
// traversal tolerates cycles so that a damaged file cannot recurse forever.
package graph

// Node is one cell in the graph.
type Node[K comparable, V any] struct {
	Key      K
	Value    V
	children []*Node[K, V]
	childSet map[K]struct{}
}

// Children returns the nodes this node places, in first-seen order.
func (n *Node[K, V]) Children() []*Node[K, V] {
	return n.children
}

// Graph maps cell keys to nodes.
// Not safe for concurrent use.
type Graph[K comparable, V any] struct {
	nodes map[K]*Node[K, V]
	order []K
}

// New creates an empty graph
func New[K comparable, V any]() *Graph[K, V] {
	return &Graph[K, V]{nodes: make(map[K]*Node[K, V])}
}

// Len returns the number of nodes.
func (g *Graph[K, V]) Len() int {
	return len(g.nodes)
}

// Lookup returns the node for k, if any.
func (g *Graph[K, V]) Lookup(k K) (*Node[K, V], bool) {
	n, ok := g.nodes[k]
	return n, ok
}

// FindOrCreate returns the node for k, inserting it if absent.
func (g *Graph[K, V]) FindOrCreate(k K) *Node[K, V] {
	if n, ok := g.nodes[k]; ok {
		return n
	}
	n := &Node[K, V]{Key: k, childSet: make(map[K]struct{})}
	g.nodes[k] = n
	g.order = append(g.order, k)
	return n
}

// AddChild records that parent places child. Repeated edges are ignored.
func (g *Graph[K, V]) AddChild(parent, child K) {
	p := g.FindOrCreate(parent)
	c := g.FindOrCreate(child)
	if _, dup := p.childSet[child]; dup {
		return
	}
	p.childSet[child] = struct{}{}
	p.children = append(p.children, c)
}

// Keys returns all node keys in insertion order.
func (g *Graph[K, V]) Keys() []K {
	result := make([]K, len(g.order))
	copy(result, g.order)
	return result
}

// Visit walks the graph depth-first from root, calling fn once for every
// node not already in visited. A node is marked before its children are
// walked, so cycles terminate. visited is owned by the caller and may be
// shared between calls to visit several roots without repeats. A root
// missing from the graph is visited as a leaf.
func (g *Graph[K, V]) Visit(root K, visited map[K]bool, fn func(n *Node[K, V]) error) error {
	return g.visit(g.FindOrCreate(root), visited, fn)
}

func (g *Graph[K, V]) visit(n *Node[K, V], visited map[K]bool, fn func(n *Node[K, V]) error) error {
	if visited[n.Key] {
		return nil
	}
	visited[n.Key] = true
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := g.visit(c, visited, fn); err != nil {
			return err
		}
	}
	return nil
}
