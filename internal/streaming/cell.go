package streaming

import (
	"context"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
)

// CellState is the lifecycle phase of a resident cell.
type CellState string

const (
	StateRequested CellState = "requested"
	StateLoading   CellState = "loading"
	StateReady     CellState = "ready"
	StateUnloading CellState = "unloading"
)

// Loader produces the payload of one cell. It runs off the control goroutine
// and must be safe for concurrent use.
type Loader interface {
	Load(ctx context.Context, c grid.Coord) (any, error)
}

type LoaderFunc func(ctx context.Context, c grid.Coord) (any, error)

func (f LoaderFunc) Load(ctx context.Context, c grid.Coord) (any, error) {
	return f(ctx, c)
}

// Releaser is implemented by payloads that hold resources to free on eviction.
type Releaser interface {
	Release()
}

// Entry is one ready cell as seen by a renderer.
type Entry struct {
	Coord   grid.Coord
	Payload any
}

// Stats is a point-in-time view of manager counters.
type Stats struct {
	Resident   int    `json:"resident"`
	Requested  int    `json:"requested"`
	Loading    int    `json:"loading"`
	Ready      int    `json:"ready"`
	InFlight   int    `json:"in_flight"`
	Dispatched uint64 `json:"dispatched"`
	Completed  uint64 `json:"completed"`
	Failed     uint64 `json:"failed"`
	Discarded  uint64 `json:"discarded"`
	Evicted    uint64 `json:"evicted"`
}

type cell struct {
	coord   grid.Coord
	state   CellState
	ticket  uint64
	payload any
}

type failure struct {
	attempts  int
	notBefore time.Time
}

type loadJob struct {
	coord   grid.Coord
	ticket  uint64
	attempt int
}

type loadResult struct {
	job     loadJob
	payload any
	err     error
	elapsed time.Duration
}

func release(payload any) {
	if r, ok := payload.(Releaser); ok {
		r.Release()
	}
}
