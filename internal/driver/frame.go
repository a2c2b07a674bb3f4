package driver

import (
	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
	"github.com/rs/zerolog/log"
)

// FrameCell is one ready cell projected into screen space.
type FrameCell struct {
	Coord  grid.Coord
	Screen grid.Rect
	// Visible is false when the cell lies entirely off screen.
	Visible bool
	Payload any
}

// Frame is what one tick publishes.
type Frame struct {
	Seq     uint64
	Subject grid.Vec
	Center  grid.Coord
	// Offset is the world position of the screen's top-left corner.
	Offset grid.Vec
	Cells  []FrameCell
	Stats  streaming.Stats
}

// Sink consumes frames on the driver goroutine.
type Sink interface {
	Present(Frame)
}

type SinkFunc func(Frame)

func (f SinkFunc) Present(frame Frame) { f(frame) }

// LogSink writes a periodic frame summary at debug level.
type LogSink struct {
	Every uint64
}

func (s LogSink) Present(f Frame) {
	if s.Every == 0 || f.Seq%s.Every != 0 {
		return
	}
	visible := 0
	for _, c := range f.Cells {
		if c.Visible {
			visible++
		}
	}
	log.Debug().
		Uint64("seq", f.Seq).
		Stringer("center", f.Center).
		Float64("x", f.Subject.X).
		Float64("y", f.Subject.Y).
		Int("ready", len(f.Cells)).
		Int("visible", visible).
		Int("in_flight", f.Stats.InFlight).
		Msg("driver.LogSink frame")
}

func project(entries []streaming.Entry, edge float64, offset, screen grid.Vec) []FrameCell {
	view := grid.Rect{Min: grid.Vec{}, Size: screen}
	cells := make([]FrameCell, 0, len(entries))
	for _, e := range entries {
		r := e.Coord.Bounds(edge).Move(offset.Scale(-1))
		cells = append(cells, FrameCell{
			Coord:   e.Coord,
			Screen:  r,
			Visible: r.Intersects(view),
			Payload: e.Payload,
		})
	}
	return cells
}
