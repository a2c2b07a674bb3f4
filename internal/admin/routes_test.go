package admin

import (
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MasterLaplace/Optimizing/internal/content"
	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
	"github.com/MasterLaplace/Optimizing/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
)

type fakeView struct {
	entries []streaming.Entry
	states  map[grid.Coord]streaming.CellState
	stats   streaming.Stats
	center  *grid.Coord
}

func (v *fakeView) Snapshot() []streaming.Entry { return v.entries }

func (v *fakeView) State(c grid.Coord) (streaming.CellState, bool) {
	s, ok := v.states[c]
	return s, ok
}

func (v *fakeView) Stats() streaming.Stats { return v.stats }

func (v *fakeView) Center() (grid.Coord, bool) {
	if v.center == nil {
		return grid.Coord{}, false
	}
	return *v.center, true
}

func newTestServer(t *testing.T, v View) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New("admin-test", "127.0.0.1:0", nil, v)
}

func get(t *testing.T, s *Server, target string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v", target, err)
		}
	}
	return w.Code, body
}

func object(id uint64, x, y, size float64) content.Object {
	return content.Object{
		ID:     id,
		Pos:    grid.Vec{X: x, Y: y},
		Size:   grid.Vec{X: size, Y: size},
		Colour: color.RGBA{A: 255},
	}
}

func readyView() *fakeView {
	origin := grid.Coord{}
	east := grid.Coord{X: 1}
	return &fakeView{
		entries: []streaming.Entry{
			{Coord: origin, Payload: content.NewCell(origin, 100, []content.Object{
				object(1, 10, 10, 5),
				object(2, 90, 90, 5),
			})},
			{Coord: east, Payload: content.NewCell(east, 100, []content.Object{
				object(3, 110, 10, 5),
			})},
		},
		states: map[grid.Coord]streaming.CellState{
			origin: streaming.StateReady,
			east:   streaming.StateReady,
			{X: 2}: streaming.StateLoading,
		},
		stats:  streaming.Stats{Resident: 3, Ready: 2, Loading: 1, InFlight: 1},
		center: &origin,
	}
}

func TestHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, &fakeView{})

	code, body := get(t, s, "/health")
	if code != http.StatusOK || body["status"] != "ok" || body["node"] != "admin-test" {
		t.Fatalf("health = %d %v", code, body)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
}

func TestReadyReflectsPendingLoads(t *testing.T) {
	testlog.Start(t)
	v := readyView()
	s := newTestServer(t, v)

	if code, body := get(t, s, "/ready"); code != http.StatusServiceUnavailable || body["ready"] != false {
		t.Fatalf("ready with pending load = %d %v", code, body)
	}

	v.stats = streaming.Stats{Resident: 2, Ready: 2}
	if code, body := get(t, s, "/ready"); code != http.StatusOK || body["ready"] != true {
		t.Fatalf("ready after settle = %d %v", code, body)
	}

	if code, _ := get(t, newTestServer(t, &fakeView{}), "/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("ready before first update = %d", code)
	}
}

func TestCellsListsReadySummaries(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, readyView())

	code, body := get(t, s, "/cells")
	if code != http.StatusOK {
		t.Fatalf("cells status = %d", code)
	}
	want := []any{
		map[string]any{"x": 0.0, "y": 0.0, "objects": 2.0},
		map[string]any{"x": 1.0, "y": 0.0, "objects": 1.0},
	}
	if diff := cmp.Diff(want, body["cells"]); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"x": 0.0, "y": 0.0}, body["center"]); diff != "" {
		t.Fatalf("center mismatch (-want +got):\n%s", diff)
	}
}

func TestCellStateLookup(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, readyView())

	if code, body := get(t, s, "/cells/2/0"); code != http.StatusOK || body["state"] != "loading" {
		t.Fatalf("loading cell = %d %v", code, body)
	}
	if code, _ := get(t, s, "/cells/9/9"); code != http.StatusNotFound {
		t.Fatalf("unknown cell status = %d", code)
	}
	if code, _ := get(t, s, "/cells/a/0"); code != http.StatusBadRequest {
		t.Fatalf("bad coordinate status = %d", code)
	}
	if code, body := get(t, s, "/cells/-1/0"); code != http.StatusNotFound || body["error"] != "cell not resident" {
		t.Fatalf("negative coordinate = %d %v", code, body)
	}
}

func TestQueryCollectsObjectsAcrossCells(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, readyView())

	code, body := get(t, s, "/query?x=0&y=0&w=50&h=50")
	if code != http.StatusOK {
		t.Fatalf("query status = %d", code)
	}
	if got := ids(body); !cmp.Equal(got, []float64{1}) {
		t.Fatalf("ids = %v, want [1]", got)
	}

	_, body = get(t, s, "/query?x=85&y=0&w=40&h=100")
	if got := ids(body); !cmp.Equal(got, []float64{2, 3}) {
		t.Fatalf("ids = %v, want [2 3]", got)
	}
	if body["cells"] != 2.0 {
		t.Fatalf("cells searched = %v", body["cells"])
	}

	for _, bad := range []string{"/query", "/query?x=0&y=0&w=0&h=1", "/query?x=NaN&y=0&w=1&h=1"} {
		if code, _ := get(t, s, bad); code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", bad, code)
		}
	}
}

func TestQuerySkipsReleasedCells(t *testing.T) {
	testlog.Start(t)
	v := readyView()
	v.entries[0].Payload.(*content.Cell).Release()
	s := newTestServer(t, v)

	_, body := get(t, s, "/query?x=0&y=0&w=200&h=100")
	if got := ids(body); !cmp.Equal(got, []float64{3}) {
		t.Fatalf("ids = %v, want [3]", got)
	}
}

func ids(body map[string]any) []float64 {
	raw, _ := body["objects"].([]any)
	out := make([]float64, 0, len(raw))
	for _, o := range raw {
		out = append(out, o.(map[string]any)["id"].(float64))
	}
	return out
}
