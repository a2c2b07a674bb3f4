package content

import (
	"image/color"
	"sync"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/quadtree"
)

// Object is one placed world entity.
type Object struct {
	ID     uint64     `json:"id"`
	Pos    grid.Vec   `json:"pos"`
	Size   grid.Vec   `json:"size"`
	Colour color.RGBA `json:"colour"`
}

func (o Object) Bounds() grid.Rect {
	return grid.Rect{Min: o.Pos, Size: o.Size}
}

// Cell is the payload published for one ready coordinate. Its objects never
// change after NewCell returns; Release only drops the search index.
type Cell struct {
	Coord   grid.Coord
	Bounds  grid.Rect
	objects []Object

	mu       sync.RWMutex
	index    *quadtree.Tree[int]
	released bool
}

// NewCell indexes objects for box queries. The slice is owned by the cell afterwards.
func NewCell(c grid.Coord, edge float64, objects []Object) *Cell {
	bounds := c.Bounds(edge)
	index := quadtree.New[int](bounds, quadtree.DefaultMaxCapacity, quadtree.DefaultMaxDepth)
	for i, o := range objects {
		index.Insert(o.Bounds(), i)
	}
	return &Cell{Coord: c, Bounds: bounds, objects: objects, index: index}
}

func (c *Cell) Len() int { return len(c.objects) }

// Objects returns a copy of the cell objects.
func (c *Cell) Objects() []Object {
	out := make([]Object, len(c.objects))
	copy(out, c.objects)
	return out
}

// Query returns objects whose boxes intersect area. A released cell answers nothing.
func (c *Cell) Query(area grid.Rect) []Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.released {
		return nil
	}
	hits := c.index.Search(area)
	out := make([]Object, 0, len(hits))
	for _, i := range hits {
		out = append(out, c.objects[i])
	}
	return out
}

// Release drops the search index; it runs when the cell leaves the resident set.
func (c *Cell) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	c.index.Clear()
}

func (c *Cell) Released() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}
