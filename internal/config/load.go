package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const EnvPrefix = "OPTIMIZING_"

// streamctl config.toml key mapping to runtime settings.
type fileConfig struct {
	Name      string        `toml:"name"`
	LogLevel  string        `toml:"log_level"`
	Streaming fileStreaming `toml:"streaming"`
	Content   fileContent   `toml:"content"`
	Admin     fileAdmin     `toml:"admin"`
	Driver    fileDriver    `toml:"driver"`
}

type fileStreaming struct {
	CellEdge        float64 `toml:"cell_edge"`
	LoadRadius      int     `toml:"load_radius"`
	EvictRadius     int     `toml:"evict_radius"`
	MaxInFlight     int     `toml:"max_in_flight"`
	LoadTimeout     string  `toml:"load_timeout"`
	RetryInitial    string  `toml:"retry_initial"`
	RetryMultiplier float64 `toml:"retry_multiplier"`
	RetryMax        string  `toml:"retry_max"`
	RetryJitter     bool    `toml:"retry_jitter"`
}

type fileContent struct {
	Source         string  `toml:"source"`
	Seed           uint32  `toml:"seed"`
	ObjectsPerCell int     `toml:"objects_per_cell"`
	MaxObjectSize  float64 `toml:"max_object_size"`
	Latency        string  `toml:"latency"`
	FailureRate    float64 `toml:"failure_rate"`
	StorePath      string  `toml:"store_path"`
	PopulateRadius int     `toml:"populate_radius"`
}

type fileAdmin struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type fileDriver struct {
	Tick     string  `toml:"tick"`
	Speed    float64 `toml:"speed"`
	ScreenW  float64 `toml:"screen_w"`
	ScreenH  float64 `toml:"screen_h"`
	StartX   float64 `toml:"start_x"`
	StartY   float64 `toml:"start_y"`
	LoopSide float64 `toml:"loop_side"`
	LogEvery uint64  `toml:"log_every"`
}

// LoadStreamctlConfig overlays the file at path (if any) and OPTIMIZING_*
// environment variables onto the defaults, then validates the result.
func LoadStreamctlConfig(path string) (StreamctlConfig, error) {
	cfg := DefaultStreamctlConfig()
	if strings.TrimSpace(path) != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return StreamctlConfig{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return StreamctlConfig{}, fmt.Errorf("load streamctl config: env: %w", err)
	}
	cfg.Content.Source = strings.ToLower(strings.TrimSpace(cfg.Content.Source))
	if err := cfg.Validate(); err != nil {
		return StreamctlConfig{}, fmt.Errorf("load streamctl config: %w", err)
	}
	return cfg, nil
}

func overlayFile(cfg *StreamctlConfig, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load streamctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load streamctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	s := &cfg.Streaming
	if meta.IsDefined("streaming", "cell_edge") {
		s.CellEdge = raw.Streaming.CellEdge
	}
	if meta.IsDefined("streaming", "load_radius") {
		s.LoadRadius = raw.Streaming.LoadRadius
	}
	if meta.IsDefined("streaming", "evict_radius") {
		s.EvictRadius = raw.Streaming.EvictRadius
	}
	if meta.IsDefined("streaming", "max_in_flight") {
		s.MaxInFlight = raw.Streaming.MaxInFlight
	}
	if meta.IsDefined("streaming", "retry_multiplier") {
		s.RetryMultiplier = raw.Streaming.RetryMultiplier
	}
	if meta.IsDefined("streaming", "retry_jitter") {
		s.RetryJitter = raw.Streaming.RetryJitter
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"load_timeout", raw.Streaming.LoadTimeout, &s.LoadTimeout},
		{"retry_initial", raw.Streaming.RetryInitial, &s.RetryInitial},
		{"retry_max", raw.Streaming.RetryMax, &s.RetryMax},
	}
	for _, d := range durations {
		if !meta.IsDefined("streaming", d.key) {
			continue
		}
		if err := parseDuration("streaming."+d.key, d.raw, d.dst); err != nil {
			return err
		}
	}

	c := &cfg.Content
	if meta.IsDefined("content", "source") {
		c.Source = raw.Content.Source
	}
	if meta.IsDefined("content", "seed") {
		c.Seed = raw.Content.Seed
	}
	if meta.IsDefined("content", "objects_per_cell") {
		c.ObjectsPerCell = raw.Content.ObjectsPerCell
	}
	if meta.IsDefined("content", "max_object_size") {
		c.MaxObjectSize = raw.Content.MaxObjectSize
	}
	if meta.IsDefined("content", "latency") {
		if err := parseDuration("content.latency", raw.Content.Latency, &c.Latency); err != nil {
			return err
		}
	}
	if meta.IsDefined("content", "failure_rate") {
		c.FailureRate = raw.Content.FailureRate
	}
	if meta.IsDefined("content", "store_path") {
		c.StorePath = strings.TrimSpace(raw.Content.StorePath)
	}
	if meta.IsDefined("content", "populate_radius") {
		c.PopulateRadius = raw.Content.PopulateRadius
	}

	if meta.IsDefined("admin", "addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.Admin.Addr)
	}
	if meta.IsDefined("admin", "cors_origins") {
		cfg.Admin.CorsOrigins = raw.Admin.CorsOrigins
	}

	d := &cfg.Driver
	if meta.IsDefined("driver", "tick") {
		if err := parseDuration("driver.tick", raw.Driver.Tick, &d.Tick); err != nil {
			return err
		}
	}
	if meta.IsDefined("driver", "speed") {
		d.Speed = raw.Driver.Speed
	}
	if meta.IsDefined("driver", "screen_w") {
		d.ScreenW = raw.Driver.ScreenW
	}
	if meta.IsDefined("driver", "screen_h") {
		d.ScreenH = raw.Driver.ScreenH
	}
	if meta.IsDefined("driver", "start_x") {
		d.StartX = raw.Driver.StartX
	}
	if meta.IsDefined("driver", "start_y") {
		d.StartY = raw.Driver.StartY
	}
	if meta.IsDefined("driver", "loop_side") {
		d.LoopSide = raw.Driver.LoopSide
	}
	if meta.IsDefined("driver", "log_every") {
		d.LogEvery = raw.Driver.LogEvery
	}
	return nil
}

func parseDuration(key, raw string, dst *time.Duration) error {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("load streamctl config: %s: %w", key, err)
	}
	*dst = v
	return nil
}
