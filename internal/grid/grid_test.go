package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCellOfFloorsTowardNegativeInfinity(t *testing.T) {
	cases := []struct {
		pos  Vec
		want Coord
	}{
		{pos: Vec{X: 400, Y: 300}, want: Coord{X: 1, Y: 1}},
		{pos: Vec{X: 0, Y: 0}, want: Coord{X: 0, Y: 0}},
		{pos: Vec{X: 255.999, Y: 256}, want: Coord{X: 0, Y: 1}},
		{pos: Vec{X: -1, Y: -256}, want: Coord{X: -1, Y: -1}},
		{pos: Vec{X: -257, Y: 768}, want: Coord{X: -2, Y: 3}},
	}
	for _, tc := range cases {
		got, err := CellOf(tc.pos, 256)
		if err != nil {
			t.Fatalf("CellOf(%+v): %v", tc.pos, err)
		}
		if got != tc.want {
			t.Fatalf("CellOf(%+v) = %v, want %v", tc.pos, got, tc.want)
		}
	}
}

func TestCellOfRejectsInvalidInput(t *testing.T) {
	bad := []struct {
		pos  Vec
		edge float64
	}{
		{pos: Vec{X: math.NaN()}, edge: 256},
		{pos: Vec{Y: math.Inf(1)}, edge: 256},
		{pos: Vec{X: 1e300}, edge: 256},
		{pos: Vec{}, edge: 0},
		{pos: Vec{}, edge: -4},
	}
	for _, tc := range bad {
		if _, err := CellOf(tc.pos, tc.edge); !errors.Is(err, ErrInvalidPosition) {
			t.Fatalf("expected ErrInvalidPosition for %+v edge=%v, got %v", tc.pos, tc.edge, err)
		}
	}
}

func TestWindowRowMajor(t *testing.T) {
	got := Window(Coord{X: 1, Y: 1}, 1)
	want := []Coord{
		{0, 0}, {1, 0}, {2, 0},
		{0, 1}, {1, 1}, {2, 1},
		{0, 2}, {1, 2}, {2, 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
	if n := len(Window(Coord{}, 3)); n != 49 {
		t.Fatalf("radius 3 window size = %d, want 49", n)
	}
	if w := Window(Coord{}, 0); len(w) != 1 || w[0] != (Coord{}) {
		t.Fatalf("radius 0 window = %v", w)
	}
	if w := Window(Coord{}, -1); len(w) != 0 {
		t.Fatalf("negative radius window = %v", w)
	}
}

func TestChebyshev(t *testing.T) {
	if d := Chebyshev(Coord{0, 0}, Coord{3, 1}); d != 3 {
		t.Fatalf("distance = %d, want 3", d)
	}
	if d := Chebyshev(Coord{2, 2}, Coord{3, 1}); d != 1 {
		t.Fatalf("distance = %d, want 1", d)
	}
	if !Within(Coord{-1, -1}, Coord{0, 0}, 1) || Within(Coord{-2, 0}, Coord{0, 0}, 1) {
		t.Fatalf("Within mismatch")
	}
}

func TestRectGeometry(t *testing.T) {
	cell := Coord{X: 1, Y: -1}.Bounds(256)
	if cell.Min != (Vec{X: 256, Y: -256}) {
		t.Fatalf("unexpected origin %+v", cell.Min)
	}
	if !cell.ContainsPoint(Vec{X: 256, Y: -1}) || cell.ContainsPoint(Vec{X: 512, Y: -1}) {
		t.Fatalf("ContainsPoint edges wrong")
	}
	box := RectAround(Vec{X: 260, Y: -10}, Vec{X: 50, Y: 50})
	if !cell.Intersects(box) || cell.Contains(box) {
		t.Fatalf("box should straddle the cell edge")
	}
	if moved := box.Move(Vec{X: 100}); moved.Min.X != box.Min.X+100 {
		t.Fatalf("Move did not translate")
	}
}
