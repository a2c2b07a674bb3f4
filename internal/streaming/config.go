package streaming

import (
	"fmt"
	"math"
	"runtime"
	"time"
)

// BackoffConfig defines the hold-off applied to a coordinate after failed loads.
// The zero value retries on the very next Update.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config is fixed at construction.
type Config struct {
	// CellEdge is the world-space edge length of one square cell.
	CellEdge float64
	// LoadRadius is the Chebyshev radius of the desired window.
	LoadRadius int
	// EvictRadius is the Chebyshev radius of the retention window.
	// EvictRadius == LoadRadius evicts a cell as soon as it leaves the desired window.
	EvictRadius int
	// MaxInFlight caps concurrently unresolved loads. Zero selects runtime.NumCPU().
	MaxInFlight int
	// LoadTimeout bounds one load; zero means unbounded.
	LoadTimeout  time.Duration
	RetryBackoff BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		CellEdge:    256,
		LoadRadius:  1,
		EvictRadius: 1,
		MaxInFlight: runtime.NumCPU(),
	}
}

// WithDefaults fills zero-valued optional fields.
func (c Config) WithDefaults() Config {
	if c.MaxInFlight == 0 {
		c.MaxInFlight = max(runtime.NumCPU(), 1)
	}
	return c
}

func (c Config) Validate() error {
	if !(c.CellEdge > 0) || math.IsInf(c.CellEdge, 0) {
		return fmt.Errorf("%w: cell edge must be positive and finite, got %v", ErrConfiguration, c.CellEdge)
	}
	if c.LoadRadius < 0 {
		return fmt.Errorf("%w: load radius must be non-negative, got %d", ErrConfiguration, c.LoadRadius)
	}
	if c.EvictRadius < c.LoadRadius {
		return fmt.Errorf("%w: evict radius %d below load radius %d", ErrConfiguration, c.EvictRadius, c.LoadRadius)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("%w: max in-flight must be non-negative, got %d", ErrConfiguration, c.MaxInFlight)
	}
	if c.LoadTimeout < 0 {
		return fmt.Errorf("%w: load timeout must be non-negative, got %s", ErrConfiguration, c.LoadTimeout)
	}
	if c.RetryBackoff.InitialDelay < 0 || c.RetryBackoff.MaxDelay < 0 {
		return fmt.Errorf("%w: retry backoff delays must be non-negative", ErrConfiguration)
	}
	return nil
}
