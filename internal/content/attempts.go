package content

import (
	"sync"

	"github.com/MasterLaplace/Optimizing/internal/grid"
)

// maxTrackedAttempts bounds the failing cells remembered at once. Past it the
// counter starts over, which only reshuffles which attempts fail.
const maxTrackedAttempts = 4096

// attemptCounter numbers consecutive loads of cells that have not yet
// succeeded. A success forgets the cell.
type attemptCounter struct {
	mu     sync.Mutex
	counts map[grid.Coord]int
}

func newAttemptCounter() *attemptCounter {
	return &attemptCounter{counts: make(map[grid.Coord]int)}
}

func (a *attemptCounter) next(c grid.Coord) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.counts[c]; !ok && len(a.counts) >= maxTrackedAttempts {
		clear(a.counts)
	}
	a.counts[c]++
	return a.counts[c]
}

func (a *attemptCounter) succeeded(c grid.Coord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, c)
}

func (a *attemptCounter) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.counts)
}
