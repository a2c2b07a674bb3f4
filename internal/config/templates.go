package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const KindStreamctl = "streamctl"

// DefaultPath is where configgen reads and writes a kind by default.
func DefaultPath(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindStreamctl:
		return "cmd/streamctl/config.toml", nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

// Template renders the defaults of kind as TOML.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindStreamctl:
		out, err := toml.Marshal(toFile(DefaultStreamctlConfig()))
		if err != nil {
			return "", fmt.Errorf("render %s template: %w", kind, err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Validate loads the file at path as kind.
func Validate(path, kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindStreamctl:
		_, err := LoadStreamctlConfig(path)
		return err
	default:
		return fmt.Errorf("unknown config kind: %s", kind)
	}
}

func toFile(c StreamctlConfig) fileConfig {
	return fileConfig{
		Name:     c.Name,
		LogLevel: c.LogLevel,
		Streaming: fileStreaming{
			CellEdge:        c.Streaming.CellEdge,
			LoadRadius:      c.Streaming.LoadRadius,
			EvictRadius:     c.Streaming.EvictRadius,
			MaxInFlight:     c.Streaming.MaxInFlight,
			LoadTimeout:     c.Streaming.LoadTimeout.String(),
			RetryInitial:    c.Streaming.RetryInitial.String(),
			RetryMultiplier: c.Streaming.RetryMultiplier,
			RetryMax:        c.Streaming.RetryMax.String(),
			RetryJitter:     c.Streaming.RetryJitter,
		},
		Content: fileContent{
			Source:         c.Content.Source,
			Seed:           c.Content.Seed,
			ObjectsPerCell: c.Content.ObjectsPerCell,
			MaxObjectSize:  c.Content.MaxObjectSize,
			Latency:        c.Content.Latency.String(),
			FailureRate:    c.Content.FailureRate,
			StorePath:      c.Content.StorePath,
			PopulateRadius: c.Content.PopulateRadius,
		},
		Admin: fileAdmin{
			Addr:        c.Admin.Addr,
			CorsOrigins: c.Admin.CorsOrigins,
		},
		Driver: fileDriver{
			Tick:     c.Driver.Tick.String(),
			Speed:    c.Driver.Speed,
			ScreenW:  c.Driver.ScreenW,
			ScreenH:  c.Driver.ScreenH,
			StartX:   c.Driver.StartX,
			StartY:   c.Driver.StartY,
			LoopSide: c.Driver.LoopSide,
			LogEvery: c.Driver.LogEvery,
		},
	}
}
