package grid

// Chebyshev returns max(|dx|, |dy|).
func Chebyshev(a, b Coord) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// Within reports whether c lies in the square window of radius r around center.
func Within(c, center Coord, r int) bool {
	return Chebyshev(c, center) <= r
}

// Window lists the (2r+1)^2 coordinates around center in row-major order.
// A negative radius yields an empty window.
func Window(center Coord, r int) []Coord {
	if r < 0 {
		return nil
	}
	side := 2*r + 1
	out := make([]Coord, 0, side*side)
	for y := center.Y - r; y <= center.Y+r; y++ {
		for x := center.X - r; x <= center.X+r; x++ {
			out = append(out, Coord{X: x, Y: y})
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
