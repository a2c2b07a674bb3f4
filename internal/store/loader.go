package store

import (
	"context"

	"github.com/MasterLaplace/Optimizing/internal/content"
	"github.com/MasterLaplace/Optimizing/internal/grid"
)

// Loader serves stored objects as *content.Cell payloads. A cell with no
// stored objects loads as an empty payload.
type Loader struct {
	store *Store
}

func NewLoader(s *Store) *Loader {
	return &Loader{store: s}
}

func (l *Loader) Load(ctx context.Context, c grid.Coord) (any, error) {
	objects, err := l.store.CellObjects(ctx, c)
	if err != nil {
		return nil, err
	}
	return content.NewCell(c, l.store.cellEdge, objects), nil
}
