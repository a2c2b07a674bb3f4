package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
	"github.com/rs/zerolog/log"
)

// Manager is the slice of *streaming.Manager the loop drives.
type Manager interface {
	Config() streaming.Config
	Update(pos grid.Vec) error
	Snapshot() []streaming.Entry
	Stats() streaming.Stats
	Center() (grid.Coord, bool)
	Close() error
}

// Driver owns the update loop for one manager. Step and Run must not be
// called concurrently.
type Driver struct {
	cfg  Config
	mgr  Manager
	path *Path
	sink Sink
	seq  uint64
}

func New(cfg Config, mgr Manager, sink Sink) (*Driver, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mgr == nil {
		return nil, errors.New("driver: manager is nil")
	}
	path, err := NewPath(cfg.Waypoints, cfg.Speed)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = LogSink{Every: cfg.LogEvery}
	}
	return &Driver{cfg: cfg, mgr: mgr, path: path, sink: sink}, nil
}

// Step advances the subject by dt, updates the manager and publishes a frame.
func (d *Driver) Step(dt time.Duration) (Frame, error) {
	subject := d.path.Advance(dt)
	if err := d.mgr.Update(subject); err != nil {
		return Frame{}, fmt.Errorf("driver: update at (%v,%v): %w", subject.X, subject.Y, err)
	}
	center, _ := d.mgr.Center()
	offset := subject.Sub(d.cfg.Screen.Scale(0.5))

	d.seq++
	frame := Frame{
		Seq:     d.seq,
		Subject: subject,
		Center:  center,
		Offset:  offset,
		Cells:   project(d.mgr.Snapshot(), d.mgr.Config().CellEdge, offset, d.cfg.Screen),
		Stats:   d.mgr.Stats(),
	}
	d.sink.Present(frame)
	return frame, nil
}

// Run steps once per tick until ctx is done, then closes the manager.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Tick)
	defer ticker.Stop()
	log.Info().Dur("tick", d.cfg.Tick).Float64("speed", d.cfg.Speed).Msg("driver.Driver.Run start")

	if _, err := d.Step(0); err != nil {
		return errors.Join(err, d.mgr.Close())
	}
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			err := d.mgr.Close()
			log.Info().Uint64("frames", d.seq).Msg("driver.Driver.Run stop")
			return err
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if _, err := d.Step(dt); err != nil {
				log.Error().Err(err).Msg("driver.Driver.Run step failed")
				return errors.Join(err, d.mgr.Close())
			}
		}
	}
}

func (d *Driver) Position() grid.Vec {
	return d.path.Position()
}
