package streaming

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Option customizes a Manager at construction.
type Option func(*Manager)

func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithClock replaces time.Now for retry hold-off. It is only called from the
// control goroutine.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRand sets the backoff jitter source. Without it a jittered config gets
// a time-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) {
		m.rng = rng
	}
}

// Manager owns the resident set for one tracked subject.
type Manager struct {
	cfg      Config
	loader   Loader
	observer Observer
	now      func() time.Time
	rng      *rand.Rand

	mu        sync.RWMutex
	cells     map[grid.Coord]*cell
	failures  map[grid.Coord]failure
	center    grid.Coord
	hasCenter bool
	inFlight  int
	ticket    uint64
	closed    bool
	stats     Stats

	ctx     context.Context
	cancel  context.CancelFunc
	slots   *semaphore.Weighted
	results chan loadResult
	wg      sync.WaitGroup
}

// New validates cfg and builds an idle manager.
func New(cfg Config, loader Loader, opts ...Option) (*Manager, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: loader is nil", ErrConfiguration)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		loader:   loader,
		observer: NopObserver{},
		now:      time.Now,
		cells:    make(map[grid.Coord]*cell),
		failures: make(map[grid.Coord]failure),
		ctx:      ctx,
		cancel:   cancel,
		slots:    semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		// One slot per unresolved load, so a finished worker never blocks.
		results: make(chan loadResult, cfg.MaxInFlight),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.rng = jitterSource(cfg.RetryBackoff, m.rng)
	log.Debug().
		Float64("cell_edge", cfg.CellEdge).
		Int("load_radius", cfg.LoadRadius).
		Int("evict_radius", cfg.EvictRadius).
		Int("max_in_flight", cfg.MaxInFlight).
		Msg("streaming.New")
	return m, nil
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Update re-centers the windows on pos: it applies finished loads, evicts
// cells outside the retention window, requests missing desired cells and
// dispatches queued ones while load slots are free. It never waits on a load.
func (m *Manager) Update(pos grid.Vec) error {
	center, err := grid.CellOf(pos, m.cfg.CellEdge)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.drainLocked()
	if !m.hasCenter || center != m.center {
		m.center = center
		m.hasCenter = true
		m.evictLocked()
	}
	m.requestLocked()
	m.dispatchLocked()
	m.observer.Resident(m.statsLocked())
	return nil
}

// Settle blocks until every dispatched load has resolved and been applied,
// dispatching queued cells as slots free up. It does not re-request failed cells.
func (m *Manager) Settle(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return ErrClosed
		}
		m.drainLocked()
		m.dispatchLocked()
		pending := m.inFlight
		if pending == 0 {
			m.observer.Resident(m.statsLocked())
		}
		m.mu.Unlock()
		if pending == 0 {
			return nil
		}

		select {
		case res := <-m.results:
			m.mu.Lock()
			m.applyLocked(res)
			m.mu.Unlock()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// IsReady reports whether c is resident with a published payload.
func (m *Manager) IsReady(c grid.Coord) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl, ok := m.cells[c]
	return ok && cl.state == StateReady
}

// State returns the lifecycle state of a resident coordinate.
func (m *Manager) State(c grid.Coord) (CellState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl, ok := m.cells[c]
	if !ok {
		return "", false
	}
	return cl.state, true
}

// Center returns the cell of the last accepted Update.
func (m *Manager) Center() (grid.Coord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.center, m.hasCenter
}

// Snapshot lists ready cells ordered by Y then X.
func (m *Manager) Snapshot() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.cells))
	for _, cl := range m.cells {
		if cl.state != StateReady {
			continue
		}
		out = append(out, Entry{Coord: cl.coord, Payload: cl.payload})
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int {
		return compareCoord(a.Coord, b.Coord)
	})
	return out
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statsLocked()
}

// Close cancels the loader context, waits for running loads and releases
// every payload. Loaders that ignore their context delay Close until they return.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for drained := false; !drained; {
		select {
		case res := <-m.results:
			m.inFlight--
			m.slots.Release(1)
			release(res.payload)
		default:
			drained = true
		}
	}
	for coord, cl := range m.cells {
		if cl.state == StateReady {
			cl.state = StateUnloading
			release(cl.payload)
		}
		delete(m.cells, coord)
	}
	clear(m.failures)
	log.Debug().Uint64("dispatched", m.stats.Dispatched).Msg("streaming.Manager.Close")
	return nil
}

func (m *Manager) drainLocked() {
	for {
		select {
		case res := <-m.results:
			m.applyLocked(res)
		default:
			return
		}
	}
}

func (m *Manager) applyLocked(res loadResult) {
	m.inFlight--
	m.slots.Release(1)

	coord := res.job.coord
	cl, ok := m.cells[coord]
	if !ok || cl.ticket != res.job.ticket || cl.state != StateLoading {
		m.stats.Discarded++
		release(res.payload)
		m.observer.LoadDiscarded(coord)
		log.Debug().Stringer("cell", coord).Uint64("ticket", res.job.ticket).Msg("streaming.Manager discard late result")
		return
	}

	if res.err != nil {
		delete(m.cells, coord)
		f := m.failures[coord]
		notBefore := f.holdOff(m.cfg.RetryBackoff, res.job.attempt, m.now(), m.rng)
		m.failures[coord] = f
		m.stats.Failed++
		lerr := &LoadError{Coord: coord, Attempt: res.job.attempt, Err: res.err}
		m.observer.LoadFailed(lerr)
		log.Warn().Err(res.err).Stringer("cell", coord).Int("attempt", res.job.attempt).Time("retry_after", notBefore).Msg("streaming.Manager load failed")
		return
	}

	cl.state = StateReady
	cl.payload = res.payload
	delete(m.failures, coord)
	m.stats.Completed++
	m.observer.LoadCompleted(coord, res.elapsed)
	log.Debug().Stringer("cell", coord).Dur("elapsed", res.elapsed).Msg("streaming.Manager ready")
}

func (m *Manager) evictLocked() {
	for coord, cl := range m.cells {
		if grid.Within(coord, m.center, m.cfg.EvictRadius) {
			continue
		}
		from := cl.state
		if from == StateReady {
			cl.state = StateUnloading
			release(cl.payload)
			cl.payload = nil
		}
		delete(m.cells, coord)
		m.stats.Evicted++
		m.observer.CellEvicted(coord, from)
		log.Debug().Stringer("cell", coord).Str("from", string(from)).Msg("streaming.Manager evict")
	}
	for coord := range m.failures {
		if !grid.Within(coord, m.center, m.cfg.EvictRadius) {
			delete(m.failures, coord)
		}
	}
}

func (m *Manager) requestLocked() {
	now := m.now()
	for _, coord := range grid.Window(m.center, m.cfg.LoadRadius) {
		if _, ok := m.cells[coord]; ok {
			continue
		}
		if f, ok := m.failures[coord]; ok && now.Before(f.notBefore) {
			continue
		}
		m.cells[coord] = &cell{coord: coord, state: StateRequested}
	}
}

// dispatchLocked starts queued cells nearest-first while slots are free.
func (m *Manager) dispatchLocked() {
	queued := make([]grid.Coord, 0)
	for coord, cl := range m.cells {
		if cl.state == StateRequested {
			queued = append(queued, coord)
		}
	}
	if len(queued) == 0 {
		return
	}
	slices.SortFunc(queued, func(a, b grid.Coord) int {
		da, db := grid.Chebyshev(a, m.center), grid.Chebyshev(b, m.center)
		if da != db {
			return da - db
		}
		return compareCoord(a, b)
	})

	for _, coord := range queued {
		if !m.slots.TryAcquire(1) {
			return
		}
		m.ticket++
		cl := m.cells[coord]
		cl.state = StateLoading
		cl.ticket = m.ticket
		job := loadJob{coord: coord, ticket: m.ticket, attempt: m.failures[coord].attempts + 1}

		m.inFlight++
		m.stats.Dispatched++
		m.wg.Add(1)
		go m.run(job)
		m.observer.LoadDispatched(coord, job.attempt)
		log.Debug().Stringer("cell", coord).Int("attempt", job.attempt).Msg("streaming.Manager dispatch")
	}
}

func (m *Manager) run(job loadJob) {
	defer m.wg.Done()
	start := time.Now()
	payload, err := m.invoke(job)
	m.results <- loadResult{job: job, payload: payload, err: err, elapsed: time.Since(start)}
}

func (m *Manager) invoke(job loadJob) (payload any, err error) {
	ctx := m.ctx
	if m.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.LoadTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()

	payload, err = m.loader.Load(ctx, job.coord)
	if err != nil {
		release(payload)
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		release(payload)
		return nil, ctxErr
	}
	if isNil(payload) {
		return nil, ErrNilPayload
	}
	return payload, nil
}

// isNil also catches typed nils such as (*T)(nil) stored in an interface.
func isNil(payload any) bool {
	if payload == nil {
		return true
	}
	switch v := reflect.ValueOf(payload); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (m *Manager) statsLocked() Stats {
	s := m.stats
	s.Resident = len(m.cells)
	s.InFlight = m.inFlight
	s.Requested, s.Loading, s.Ready = 0, 0, 0
	for _, cl := range m.cells {
		switch cl.state {
		case StateRequested:
			s.Requested++
		case StateLoading:
			s.Loading++
		case StateReady:
			s.Ready++
		}
	}
	return s
}

func compareCoord(a, b grid.Coord) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
