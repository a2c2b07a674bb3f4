package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/MasterLaplace/Optimizing/internal/content"
	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	ErrInvalidCellEdge = errors.New("store: cell edge must be positive")
	// ErrIDConflict reports an object id already stored in another cell.
	ErrIDConflict = errors.New("store: object id belongs to another cell")
)

// Store is an object table keyed by cell.
type Store struct {
	db       *sql.DB
	cellEdge float64
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, cellEdge float64) (*Store, error) {
	if !(cellEdge > 0) || math.IsInf(cellEdge, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellEdge, cellEdge)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Float64("cell_edge", cellEdge).Msg("store.Open")
	return &Store{db: db, cellEdge: cellEdge}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CellEdge() float64 { return s.cellEdge }

// Insert buckets each object into the cell containing its position. An id
// already stored in the same cell is updated in place; an id stored in a
// different cell fails the whole batch with ErrIDConflict.
func (s *Store) Insert(ctx context.Context, objects []content.Object) error {
	if len(objects) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO objects (id, cell_x, cell_y, pos_x, pos_y, size_x, size_y, colour)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pos_x = excluded.pos_x,
			pos_y = excluded.pos_y,
			size_x = excluded.size_x,
			size_y = excluded.size_y,
			colour = excluded.colour
		WHERE objects.cell_x = excluded.cell_x AND objects.cell_y = excluded.cell_y`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range objects {
		c, err := grid.CellOf(o.Pos, s.cellEdge)
		if err != nil {
			return fmt.Errorf("store: object %d: %w", o.ID, err)
		}
		res, err := stmt.ExecContext(ctx,
			int64(o.ID), c.X, c.Y, o.Pos.X, o.Pos.Y, o.Size.X, o.Size.Y, packColour(o.Colour),
		)
		if err != nil {
			return fmt.Errorf("store: insert object %d: %w", o.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: insert object %d: %w", o.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: id %d in cell %s", ErrIDConflict, o.ID, c)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit insert: %w", err)
	}
	log.Debug().Int("objects", len(objects)).Msg("store.Store.Insert")
	return nil
}

// CellObjects returns the objects bucketed into c, ordered by id.
func (s *Store) CellObjects(ctx context.Context, c grid.Coord) ([]content.Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pos_x, pos_y, size_x, size_y, colour
		FROM objects
		WHERE cell_x = ? AND cell_y = ?
		ORDER BY id`, c.X, c.Y)
	if err != nil {
		return nil, fmt.Errorf("store: query cell %s: %w", c, err)
	}
	defer rows.Close()

	out := make([]content.Object, 0)
	for rows.Next() {
		var (
			id     int64
			o      content.Object
			colour int64
		)
		if err := rows.Scan(&id, &o.Pos.X, &o.Pos.Y, &o.Size.X, &o.Size.Y, &colour); err != nil {
			return nil, fmt.Errorf("store: scan cell %s: %w", c, err)
		}
		o.ID = uint64(id)
		o.Colour = unpackColour(colour)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate cell %s: %w", c, err)
	}
	return out, nil
}

// Count returns the number of stored objects.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Cells lists the distinct cells that hold at least one object.
func (s *Store) Cells(ctx context.Context) ([]grid.Coord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT cell_x, cell_y FROM objects ORDER BY cell_y, cell_x`)
	if err != nil {
		return nil, fmt.Errorf("store: list cells: %w", err)
	}
	defer rows.Close()
	out := make([]grid.Coord, 0)
	for rows.Next() {
		var c grid.Coord
		if err := rows.Scan(&c.X, &c.Y); err != nil {
			return nil, fmt.Errorf("store: scan cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func packColour(c color.RGBA) int64 {
	return int64(c.R)<<24 | int64(c.G)<<16 | int64(c.B)<<8 | int64(c.A)
}

func unpackColour(v int64) color.RGBA {
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// Populate fills an empty store with generated content for every cell within
// radius of center. A store that already holds objects is left untouched.
func (s *Store) Populate(ctx context.Context, gen content.GeneratorConfig, center grid.Coord, radius int) (int, error) {
	if gen.CellEdge != s.cellEdge {
		return 0, fmt.Errorf("%w: generator edge %v differs from store edge %v", ErrInvalidCellEdge, gen.CellEdge, s.cellEdge)
	}
	n, err := s.Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	inserted := 0
	for _, c := range grid.Window(center, radius) {
		objects := content.Generate(gen, c)
		if err := s.Insert(ctx, objects); err != nil {
			return inserted, err
		}
		inserted += len(objects)
	}
	log.Info().Stringer("center", center).Int("radius", radius).Int("objects", inserted).Msg("store.Store.Populate")
	return inserted, nil
}
