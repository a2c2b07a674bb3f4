package driver

import (
	"fmt"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
)

const (
	DefaultTick  = time.Second / 60
	DefaultSpeed = 240
)

// DefaultScreen matches an 800x600 window centred on the subject.
var DefaultScreen = grid.Vec{X: 800, Y: 600}

// Config drives the frame loop.
type Config struct {
	Tick   time.Duration
	Screen grid.Vec
	// Speed is in world units per second.
	Speed     float64
	Waypoints []grid.Vec
	// LogEvery logs one frame summary per that many ticks; zero disables it.
	LogEvery uint64
}

func DefaultConfig() Config {
	return Config{
		Tick:      DefaultTick,
		Screen:    DefaultScreen,
		Speed:     DefaultSpeed,
		Waypoints: SquareLoop(grid.Vec{X: 400, Y: 300}, 2048),
		LogEvery:  60,
	}
}

func (c Config) WithDefaults() Config {
	if c.Tick == 0 {
		c.Tick = DefaultTick
	}
	if c.Screen == (grid.Vec{}) {
		c.Screen = DefaultScreen
	}
	if len(c.Waypoints) == 0 {
		c.Waypoints = DefaultConfig().Waypoints
	}
	return c
}

func (c Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("driver: tick must be positive, got %s", c.Tick)
	}
	if c.Screen.X <= 0 || c.Screen.Y <= 0 {
		return fmt.Errorf("driver: screen size must be positive, got %vx%v", c.Screen.X, c.Screen.Y)
	}
	if c.Speed < 0 {
		return fmt.Errorf("driver: speed must be non-negative, got %v", c.Speed)
	}
	return nil
}
