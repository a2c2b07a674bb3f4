package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
	"github.com/MasterLaplace/Optimizing/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func TestPathAdvanceWrapsAroundLoop(t *testing.T) {
	testlog.Start(t)
	p, err := NewPath(SquareLoop(grid.Vec{}, 100), 100)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	steps := []struct {
		dt   time.Duration
		want grid.Vec
	}{
		{time.Second, grid.Vec{X: 100, Y: 0}},
		{1500 * time.Millisecond, grid.Vec{X: 50, Y: 100}},
		{2500 * time.Millisecond, grid.Vec{X: 100, Y: 0}},
		{0, grid.Vec{X: 100, Y: 0}},
	}
	for i, s := range steps {
		if got := p.Advance(s.dt); got != s.want {
			t.Fatalf("step %d: Advance(%s) = %+v, want %+v", i, s.dt, got, s.want)
		}
	}
}

func TestPathHoldsStillWithoutMotion(t *testing.T) {
	testlog.Start(t)
	single, err := NewPath([]grid.Vec{{X: 5, Y: 5}}, 100)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if got := single.Advance(time.Second); got != (grid.Vec{X: 5, Y: 5}) {
		t.Fatalf("single waypoint moved to %+v", got)
	}

	same, err := NewPath([]grid.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}}, 100)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if got := same.Advance(time.Second); got != (grid.Vec{X: 1, Y: 1}) {
		t.Fatalf("coincident loop moved to %+v", got)
	}
}

func TestNewPathRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	if _, err := NewPath(nil, 1); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("empty path err = %v", err)
	}
	if _, err := NewPath([]grid.Vec{{}}, -1); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("negative speed err = %v", err)
	}
}

func newManager(t *testing.T) *streaming.Manager {
	t.Helper()
	loader := streaming.LoaderFunc(func(_ context.Context, c grid.Coord) (any, error) {
		return c.String(), nil
	})
	m, err := streaming.New(streaming.Config{CellEdge: 256, LoadRadius: 1, EvictRadius: 1, MaxInFlight: 9}, loader)
	if err != nil {
		t.Fatalf("streaming.New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestStepProjectsReadyCells(t *testing.T) {
	testlog.Start(t)
	m := newManager(t)

	var frames []Frame
	cfg := Config{Tick: time.Millisecond, Speed: 0, Waypoints: []grid.Vec{{X: 400, Y: 300}}}
	d, err := New(cfg, m, SinkFunc(func(f Frame) { frames = append(frames, f) }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.Step(0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	frame, err := d.Step(0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	if len(frames) != 2 || frames[1].Seq != 2 {
		t.Fatalf("sink saw %d frames", len(frames))
	}
	if frame.Center != (grid.Coord{X: 1, Y: 1}) {
		t.Fatalf("center = %s", frame.Center)
	}
	if frame.Offset != (grid.Vec{}) {
		t.Fatalf("offset = %+v, want origin", frame.Offset)
	}
	if len(frame.Cells) != 9 {
		t.Fatalf("frame has %d cells, want 9", len(frame.Cells))
	}
	for _, c := range frame.Cells {
		if !c.Visible {
			t.Fatalf("cell %s unexpectedly off screen", c.Coord)
		}
	}
	centre := frame.Cells[4]
	want := FrameCell{
		Coord:   grid.Coord{X: 1, Y: 1},
		Screen:  grid.Rect{Min: grid.Vec{X: 256, Y: 256}, Size: grid.Vec{X: 256, Y: 256}},
		Visible: true,
		Payload: "(1,1)",
	}
	if diff := cmp.Diff(want, centre); diff != "" {
		t.Fatalf("centre cell mismatch (-want +got):\n%s", diff)
	}
}

func TestStepMarksOffscreenCells(t *testing.T) {
	testlog.Start(t)
	m := newManager(t)
	// The 100x100 view around the centre of cell (1,1) stays inside that cell.
	d, err := New(Config{Waypoints: []grid.Vec{{X: 384, Y: 384}}}, m, SinkFunc(func(Frame) {}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.cfg.Screen = grid.Vec{X: 100, Y: 100}

	if _, err := d.Step(0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	frame, err := d.Step(0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	var visible []grid.Coord
	for _, c := range frame.Cells {
		if c.Visible {
			visible = append(visible, c.Coord)
		}
	}
	if diff := cmp.Diff([]grid.Coord{{X: 1, Y: 1}}, visible); diff != "" {
		t.Fatalf("visible cells mismatch (-want +got):\n%s", diff)
	}

	// Back at (400,300) the view spans y in [250,350) and crosses into row 0.
	d.path = mustPath(t, grid.Vec{X: 400, Y: 300})
	frame, err = d.Step(0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	visible = visible[:0]
	for _, c := range frame.Cells {
		if c.Visible {
			visible = append(visible, c.Coord)
		}
	}
	if diff := cmp.Diff([]grid.Coord{{X: 1, Y: 0}, {X: 1, Y: 1}}, visible); diff != "" {
		t.Fatalf("visible cells mismatch (-want +got):\n%s", diff)
	}
}

func mustPath(t *testing.T, at grid.Vec) *Path {
	t.Helper()
	p, err := NewPath([]grid.Vec{at}, 0)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func TestRunClosesManagerOnCancel(t *testing.T) {
	testlog.Start(t)
	m := newManager(t)
	frames := make(chan Frame, 1024)
	d, err := New(Config{Tick: time.Millisecond, Speed: 500}, m, SinkFunc(func(f Frame) {
		select {
		case frames <- f:
		default:
		}
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 5; i++ {
		select {
		case <-frames:
		case <-time.After(5 * time.Second):
			t.Fatalf("no frame after %d", i)
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop")
	}
	if err := m.Update(grid.Vec{}); !errors.Is(err, streaming.ErrClosed) {
		t.Fatalf("Update after Run = %v, want ErrClosed", err)
	}
}

func TestRunStopsOnClosedManager(t *testing.T) {
	testlog.Start(t)
	m := newManager(t)
	_ = m.Close()
	d, err := New(DefaultConfig(), m, SinkFunc(func(Frame) {}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(context.Background()); !errors.Is(err, streaming.ErrClosed) {
		t.Fatalf("Run = %v, want ErrClosed", err)
	}
}
