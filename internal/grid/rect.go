package grid

// Rect is an axis-aligned box anchored at its minimum corner.
type Rect struct {
	Min  Vec `json:"min"`
	Size Vec `json:"size"`
}

// RectAround builds a box of the given size centered on p.
func RectAround(p, size Vec) Rect {
	return Rect{Min: p.Sub(size.Scale(0.5)), Size: size}
}

func (r Rect) Max() Vec { return r.Min.Add(r.Size) }

func (r Rect) Center() Vec { return r.Min.Add(r.Size.Scale(0.5)) }

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	rm, om := r.Max(), o.Max()
	return o.Min.X >= r.Min.X && o.Min.Y >= r.Min.Y && om.X <= rm.X && om.Y <= rm.Y
}

// ContainsPoint is half-open on the max edges.
func (r Rect) ContainsPoint(p Vec) bool {
	rm := r.Max()
	return p.X >= r.Min.X && p.Y >= r.Min.Y && p.X < rm.X && p.Y < rm.Y
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	rm, om := r.Max(), o.Max()
	return r.Min.X < om.X && o.Min.X < rm.X && r.Min.Y < om.Y && o.Min.Y < rm.Y
}

// Move translates r by d.
func (r Rect) Move(d Vec) Rect {
	return Rect{Min: r.Min.Add(d), Size: r.Size}
}
