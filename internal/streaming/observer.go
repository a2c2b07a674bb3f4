package streaming

import (
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
)

// Observer receives lifecycle notifications. Methods run on the control
// goroutine with the manager lock held and must not call back into the Manager.
type Observer interface {
	LoadDispatched(c grid.Coord, attempt int)
	LoadCompleted(c grid.Coord, elapsed time.Duration)
	LoadFailed(err *LoadError)
	LoadDiscarded(c grid.Coord)
	CellEvicted(c grid.Coord, from CellState)
	Resident(stats Stats)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) LoadDispatched(grid.Coord, int)          {}
func (NopObserver) LoadCompleted(grid.Coord, time.Duration) {}
func (NopObserver) LoadFailed(*LoadError)                   {}
func (NopObserver) LoadDiscarded(grid.Coord)                {}
func (NopObserver) CellEvicted(grid.Coord, CellState)       {}
func (NopObserver) Resident(Stats)                          {}
