package content

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultObjectsPerCell = 1000
	DefaultMaxObjectSize  = 10
)

var ErrGenerationFailed = errors.New("content: generation failed")

// GeneratorConfig drives procedural cell content.
type GeneratorConfig struct {
	Seed           uint32
	CellEdge       float64
	ObjectsPerCell int
	MaxObjectSize  float64
	// Latency simulates slow storage; the load honors context cancellation.
	Latency time.Duration
	// FailureRate in [0,1] deterministically fails that share of (cell, attempt) pairs.
	FailureRate float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		CellEdge:       256,
		ObjectsPerCell: DefaultObjectsPerCell,
		MaxObjectSize:  DefaultMaxObjectSize,
	}
}

func (c GeneratorConfig) Validate() error {
	if !(c.CellEdge > 0) {
		return fmt.Errorf("content: cell edge must be positive, got %v", c.CellEdge)
	}
	if c.ObjectsPerCell < 0 {
		return fmt.Errorf("content: objects per cell must be non-negative, got %d", c.ObjectsPerCell)
	}
	if c.MaxObjectSize < 0 {
		return fmt.Errorf("content: max object size must be non-negative, got %v", c.MaxObjectSize)
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("content: failure rate must be within [0,1], got %v", c.FailureRate)
	}
	if c.Latency < 0 {
		return fmt.Errorf("content: latency must be non-negative, got %s", c.Latency)
	}
	return nil
}

// Generator fabricates cell payloads. It is safe for concurrent use.
type Generator struct {
	cfg      GeneratorConfig
	attempts *attemptCounter
}

func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, attempts: newAttemptCounter()}, nil
}

// Load builds the payload for c. The returned value is a *Cell.
func (g *Generator) Load(ctx context.Context, c grid.Coord) (any, error) {
	if g.cfg.Latency > 0 {
		timer := time.NewTimer(g.cfg.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if g.cfg.FailureRate > 0 {
		attempt := g.attempts.next(c)
		roll := float64(hash2(g.cfg.Seed^uint32(attempt)*0x27d4eb2d, c.X, c.Y)) / (1 << 32)
		if roll < g.cfg.FailureRate {
			return nil, fmt.Errorf("%w: cell %s attempt %d", ErrGenerationFailed, c, attempt)
		}
		g.attempts.succeeded(c)
	}

	cell := NewCell(c, g.cfg.CellEdge, Generate(g.cfg, c))
	log.Debug().Stringer("cell", c).Int("objects", cell.Len()).Msg("content.Generator.Load")
	return cell, nil
}

// Generate returns the objects of c. Ids are unique within a cell; their high
// bits are a hash of (seed, coordinate), so two cells can share ids and
// store.Insert rejects such a cross-cell clash.
func Generate(cfg GeneratorConfig, c grid.Coord) []Object {
	s := newStream(hash2(cfg.Seed, c.X, c.Y))
	origin := c.Origin(cfg.CellEdge)
	base := uint64(hash2(cfg.Seed, c.X, c.Y)) << 32

	out := make([]Object, 0, cfg.ObjectsPerCell)
	for i := 0; i < cfg.ObjectsPerCell; i++ {
		size := grid.Vec{X: s.between(0, cfg.MaxObjectSize), Y: s.between(0, cfg.MaxObjectSize)}
		size.X = min(size.X, cfg.CellEdge)
		size.Y = min(size.Y, cfg.CellEdge)
		pos := grid.Vec{
			X: origin.X + s.between(0, cfg.CellEdge-size.X),
			Y: origin.Y + s.between(0, cfg.CellEdge-size.Y),
		}
		rgb := s.next()
		out = append(out, Object{
			ID:     base | uint64(i),
			Pos:    pos,
			Size:   size,
			Colour: color.RGBA{R: uint8(rgb), G: uint8(rgb >> 8), B: uint8(rgb >> 16), A: 255},
		})
	}
	return out
}
