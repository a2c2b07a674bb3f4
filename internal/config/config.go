package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/content"
	"github.com/MasterLaplace/Optimizing/internal/driver"
	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/logging"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Content sources.
const (
	SourceGenerator = "generator"
	SourceStore     = "store"
)

// StreamctlConfig is the resolved streamctl runtime configuration.
type StreamctlConfig struct {
	Name      string           `env:"NAME"`
	LogLevel  string           `env:"LOG_LEVEL"`
	Streaming StreamingSection `envPrefix:"STREAM_"`
	Content   ContentSection   `envPrefix:"CONTENT_"`
	Admin     AdminSection     `envPrefix:"ADMIN_"`
	Driver    DriverSection    `envPrefix:"DRIVER_"`
}

type StreamingSection struct {
	CellEdge        float64       `env:"CELL_EDGE"`
	LoadRadius      int           `env:"LOAD_RADIUS"`
	EvictRadius     int           `env:"EVICT_RADIUS"`
	MaxInFlight     int           `env:"MAX_IN_FLIGHT"`
	LoadTimeout     time.Duration `env:"LOAD_TIMEOUT"`
	RetryInitial    time.Duration `env:"RETRY_INITIAL"`
	RetryMultiplier float64       `env:"RETRY_MULTIPLIER"`
	RetryMax        time.Duration `env:"RETRY_MAX"`
	RetryJitter     bool          `env:"RETRY_JITTER"`
}

type ContentSection struct {
	Source         string        `env:"SOURCE"`
	Seed           uint32        `env:"SEED"`
	ObjectsPerCell int           `env:"OBJECTS_PER_CELL"`
	MaxObjectSize  float64       `env:"MAX_OBJECT_SIZE"`
	Latency        time.Duration `env:"LATENCY"`
	FailureRate    float64       `env:"FAILURE_RATE"`
	StorePath      string        `env:"STORE_PATH"`
	// PopulateRadius seeds an empty store with generated cells around the
	// driver start; negative leaves the store untouched.
	PopulateRadius int `env:"POPULATE_RADIUS"`
}

// AdminSection leaves the HTTP surface off when Addr is empty.
type AdminSection struct {
	Addr        string   `env:"ADDR"`
	CorsOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

type DriverSection struct {
	Tick     time.Duration `env:"TICK"`
	Speed    float64       `env:"SPEED"`
	ScreenW  float64       `env:"SCREEN_W"`
	ScreenH  float64       `env:"SCREEN_H"`
	StartX   float64       `env:"START_X"`
	StartY   float64       `env:"START_Y"`
	LoopSide float64       `env:"LOOP_SIDE"`
	LogEvery uint64        `env:"LOG_EVERY"`
}

func DefaultStreamctlConfig() StreamctlConfig {
	sc := streaming.DefaultConfig()
	gc := content.DefaultGeneratorConfig()
	dc := driver.DefaultConfig()
	return StreamctlConfig{
		Name:     "streamctl",
		LogLevel: "info",
		Streaming: StreamingSection{
			CellEdge:    sc.CellEdge,
			LoadRadius:  sc.LoadRadius,
			EvictRadius: sc.EvictRadius,
		},
		Content: ContentSection{
			Source:         SourceGenerator,
			Seed:           1,
			ObjectsPerCell: gc.ObjectsPerCell,
			MaxObjectSize:  gc.MaxObjectSize,
			StorePath:      "world.db",
			PopulateRadius: 4,
		},
		Admin: AdminSection{
			Addr:        "127.0.0.1:9300",
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Driver: DriverSection{
			Tick:     dc.Tick,
			Speed:    dc.Speed,
			ScreenW:  dc.Screen.X,
			ScreenH:  dc.Screen.Y,
			StartX:   400,
			StartY:   300,
			LoopSide: 2048,
			LogEvery: dc.LogEvery,
		},
	}
}

// Manager maps the streaming section onto a manager config.
func (c StreamctlConfig) Manager() streaming.Config {
	s := c.Streaming
	return streaming.Config{
		CellEdge:    s.CellEdge,
		LoadRadius:  s.LoadRadius,
		EvictRadius: s.EvictRadius,
		MaxInFlight: s.MaxInFlight,
		LoadTimeout: s.LoadTimeout,
		RetryBackoff: streaming.BackoffConfig{
			InitialDelay: s.RetryInitial,
			Multiplier:   s.RetryMultiplier,
			MaxDelay:     s.RetryMax,
			Jitter:       s.RetryJitter,
		},
	}
}

// Generator shares the streaming cell edge so generated content lines up with the grid.
func (c StreamctlConfig) Generator() content.GeneratorConfig {
	return content.GeneratorConfig{
		Seed:           c.Content.Seed,
		CellEdge:       c.Streaming.CellEdge,
		ObjectsPerCell: c.Content.ObjectsPerCell,
		MaxObjectSize:  c.Content.MaxObjectSize,
		Latency:        c.Content.Latency,
		FailureRate:    c.Content.FailureRate,
	}
}

func (c StreamctlConfig) Start() grid.Vec {
	return grid.Vec{X: c.Driver.StartX, Y: c.Driver.StartY}
}

func (c StreamctlConfig) DriverConfig() driver.Config {
	d := c.Driver
	waypoints := []grid.Vec{c.Start()}
	if d.LoopSide > 0 {
		waypoints = driver.SquareLoop(c.Start(), d.LoopSide)
	}
	return driver.Config{
		Tick:      d.Tick,
		Screen:    grid.Vec{X: d.ScreenW, Y: d.ScreenH},
		Speed:     d.Speed,
		Waypoints: waypoints,
		LogEvery:  d.LogEvery,
	}
}

func (c StreamctlConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
		}
	}
	if err := c.Manager().WithDefaults().Validate(); err != nil {
		return fmt.Errorf("%w: streaming: %w", ErrInvalidConfig, err)
	}
	switch c.Content.Source {
	case SourceGenerator:
	case SourceStore:
		if strings.TrimSpace(c.Content.StorePath) == "" {
			return fmt.Errorf("%w: content.store_path is required when source is %q", ErrInvalidConfig, SourceStore)
		}
	default:
		return fmt.Errorf("%w: unsupported content source %q (expected %s or %s)",
			ErrInvalidConfig, c.Content.Source, SourceGenerator, SourceStore)
	}
	if err := c.Generator().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Driver.LoopSide < 0 {
		return fmt.Errorf("%w: driver.loop_side must be non-negative", ErrInvalidConfig)
	}
	if err := c.DriverConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := grid.CellOf(c.Start(), c.Streaming.CellEdge); err != nil {
		return fmt.Errorf("%w: driver start: %w", ErrInvalidConfig, err)
	}
	return nil
}
