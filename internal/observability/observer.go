package observability

import (
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
)

// StreamObserver exports manager notifications as prometheus series labelled
// with a node name.
type StreamObserver struct {
	Node string
}

var _ streaming.Observer = StreamObserver{}

func NewStreamObserver(node string) StreamObserver {
	RegisterMetrics()
	return StreamObserver{Node: node}
}

func (o StreamObserver) LoadDispatched(grid.Coord, int) {
	RecordLoad(o.Node, OutcomeDispatched)
}

func (o StreamObserver) LoadCompleted(_ grid.Coord, elapsed time.Duration) {
	RecordLoad(o.Node, OutcomeCompleted)
	RecordLoadDuration(o.Node, elapsed)
}

func (o StreamObserver) LoadFailed(*streaming.LoadError) {
	RecordLoad(o.Node, OutcomeFailed)
}

func (o StreamObserver) LoadDiscarded(grid.Coord) {
	RecordLoad(o.Node, OutcomeDiscarded)
}

func (o StreamObserver) CellEvicted(_ grid.Coord, from streaming.CellState) {
	RecordEviction(o.Node, string(from))
}

func (o StreamObserver) Resident(s streaming.Stats) {
	SetResident(o.Node, s.Requested, s.Loading, s.Ready, s.InFlight)
}
