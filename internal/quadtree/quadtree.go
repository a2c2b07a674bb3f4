// Package quadtree indexes rectangles inside a fixed square region.
package quadtree

import "github.com/MasterLaplace/Optimizing/internal/grid"

const (
	DefaultMaxCapacity = 4
	DefaultMaxDepth    = 8
)

type item[T any] struct {
	bounds grid.Rect
	value  T
}

type node[T any] struct {
	bounds   grid.Rect
	depth    int
	items    []item[T]
	children *[4]node[T]
}

// Tree stores values with their bounding boxes. Items that straddle a split
// stay on the parent node; items outside the root bounds are kept on the root.
type Tree[T any] struct {
	root        node[T]
	maxCapacity int
	maxDepth    int
	size        int
}

func New[T any](bounds grid.Rect, maxCapacity, maxDepth int) *Tree[T] {
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree[T]{root: node[T]{bounds: bounds}, maxCapacity: maxCapacity, maxDepth: maxDepth}
}

func (t *Tree[T]) Bounds() grid.Rect { return t.root.bounds }

func (t *Tree[T]) Len() int { return t.size }

func (t *Tree[T]) Insert(bounds grid.Rect, value T) {
	t.root.insert(item[T]{bounds: bounds, value: value}, t.maxCapacity, t.maxDepth)
	t.size++
}

// Search returns every value whose box intersects area.
func (t *Tree[T]) Search(area grid.Rect) []T {
	out := make([]T, 0)
	t.root.search(area, &out)
	return out
}

// Clear drops every item but keeps the root bounds.
func (t *Tree[T]) Clear() {
	t.root = node[T]{bounds: t.root.bounds}
	t.size = 0
}

func (n *node[T]) insert(it item[T], maxCapacity, maxDepth int) {
	if n.children != nil {
		if child := n.childFor(it.bounds); child != nil {
			child.insert(it, maxCapacity, maxDepth)
			return
		}
		n.items = append(n.items, it)
		return
	}

	n.items = append(n.items, it)
	if len(n.items) <= maxCapacity || n.depth >= maxDepth {
		return
	}
	n.split()
	kept := n.items[:0]
	for _, held := range n.items {
		if child := n.childFor(held.bounds); child != nil {
			child.insert(held, maxCapacity, maxDepth)
			continue
		}
		kept = append(kept, held)
	}
	clear(n.items[len(kept):])
	n.items = kept
}

func (n *node[T]) split() {
	half := n.bounds.Size.Scale(0.5)
	o := n.bounds.Min
	d := n.depth + 1
	n.children = &[4]node[T]{
		{bounds: grid.Rect{Min: o, Size: half}, depth: d},
		{bounds: grid.Rect{Min: grid.Vec{X: o.X + half.X, Y: o.Y}, Size: half}, depth: d},
		{bounds: grid.Rect{Min: grid.Vec{X: o.X, Y: o.Y + half.Y}, Size: half}, depth: d},
		{bounds: grid.Rect{Min: o.Add(half), Size: half}, depth: d},
	}
}

func (n *node[T]) childFor(b grid.Rect) *node[T] {
	for i := range n.children {
		if n.children[i].bounds.Contains(b) {
			return &n.children[i]
		}
	}
	return nil
}

func (n *node[T]) search(area grid.Rect, out *[]T) {
	for _, it := range n.items {
		if it.bounds.Intersects(area) {
			*out = append(*out, it.value)
		}
	}
	if n.children == nil {
		return
	}
	for i := range n.children {
		child := &n.children[i]
		if !child.bounds.Intersects(area) {
			continue
		}
		child.search(area, out)
	}
}
