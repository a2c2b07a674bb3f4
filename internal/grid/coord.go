package grid

import (
	"errors"
	"fmt"
	"math"
)

// MaxIndex bounds the absolute cell index accepted by CellOf.
const MaxIndex = 1 << 40

var ErrInvalidPosition = errors.New("grid: invalid position")

// Vec is a continuous world-space position.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec) Scale(f float64) Vec { return Vec{X: v.X * f, Y: v.Y * f} }

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Coord addresses one square cell of the world.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders coordinates row-major (Y, then X).
func (c Coord) Less(o Coord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Origin returns the world-space corner of the cell with the smallest components.
func (c Coord) Origin(edge float64) Vec {
	return Vec{X: float64(c.X) * edge, Y: float64(c.Y) * edge}
}

// Bounds returns the world-space square covered by the cell.
func (c Coord) Bounds(edge float64) Rect {
	return Rect{Min: c.Origin(edge), Size: Vec{X: edge, Y: edge}}
}

// CellOf maps a position onto its cell by flooring pos/edge componentwise.
func CellOf(pos Vec, edge float64) (Coord, error) {
	if !(edge > 0) || math.IsInf(edge, 0) {
		return Coord{}, fmt.Errorf("%w: cell edge %v", ErrInvalidPosition, edge)
	}
	x, err := axisIndex(pos.X, edge)
	if err != nil {
		return Coord{}, err
	}
	y, err := axisIndex(pos.Y, edge)
	if err != nil {
		return Coord{}, err
	}
	return Coord{X: x, Y: y}, nil
}

func axisIndex(v, edge float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPosition, v)
	}
	f := math.Floor(v / edge)
	if math.Abs(f) > MaxIndex {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidPosition, v)
	}
	return int(f), nil
}
