package streaming

import (
	"errors"
	"fmt"

	"github.com/MasterLaplace/Optimizing/internal/grid"
)

var (
	ErrConfiguration   = errors.New("streaming: invalid configuration")
	ErrClosed          = errors.New("streaming: manager closed")
	ErrLoadFailure     = errors.New("streaming: load failed")
	ErrNilPayload      = errors.New("streaming: loader returned nil payload")
	ErrInvalidPosition = grid.ErrInvalidPosition
)

// LoadError describes one failed load attempt. It matches ErrLoadFailure and
// the loader's own error under errors.Is.
type LoadError struct {
	Coord   grid.Coord
	Attempt int
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("streaming: load %s attempt %d: %v", e.Coord, e.Attempt, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailure, e.Err}
}
