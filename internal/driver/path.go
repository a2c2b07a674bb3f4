package driver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
)

var ErrInvalidPath = errors.New("driver: invalid path")

// Path moves a point at constant speed through looping waypoints.
type Path struct {
	points []grid.Vec
	speed  float64
	next   int
	pos    grid.Vec
}

// NewPath starts at the first waypoint. One waypoint or zero speed holds the
// subject still.
func NewPath(points []grid.Vec, speed float64) (*Path, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no waypoints", ErrInvalidPath)
	}
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: speed must be finite and non-negative, got %v", ErrInvalidPath, speed)
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("%w: waypoint %d is not finite", ErrInvalidPath, i)
		}
	}
	pts := make([]grid.Vec, len(points))
	copy(pts, points)
	return &Path{points: pts, speed: speed, next: 1 % len(pts), pos: pts[0]}, nil
}

func (p *Path) Position() grid.Vec {
	return p.pos
}

// Advance moves the point by speed*dt, wrapping past the last waypoint.
func (p *Path) Advance(dt time.Duration) grid.Vec {
	if len(p.points) < 2 || p.speed == 0 || dt <= 0 {
		return p.pos
	}
	remaining := p.speed * dt.Seconds()
	// Guard against a loop whose waypoints all coincide.
	for steps := 0; remaining > 0 && steps <= 2*len(p.points); steps++ {
		target := p.points[p.next]
		leg := target.Sub(p.pos)
		dist := leg.Len()
		if dist > remaining {
			p.pos = p.pos.Add(leg.Scale(remaining / dist))
			return p.pos
		}
		remaining -= dist
		p.pos = target
		p.next = (p.next + 1) % len(p.points)
		if dist > 0 {
			steps = 0
		}
	}
	return p.pos
}

// SquareLoop is a closed square with its first corner at start.
func SquareLoop(start grid.Vec, side float64) []grid.Vec {
	return []grid.Vec{
		start,
		{X: start.X + side, Y: start.Y},
		{X: start.X + side, Y: start.Y + side},
		{X: start.X, Y: start.Y + side},
	}
}
