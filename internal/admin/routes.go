package admin

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/content"
	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Querier is implemented by payloads that answer box queries.
type Querier interface {
	Query(area grid.Rect) []content.Object
}

type counter interface {
	Len() int
}

type cellSummary struct {
	grid.Coord
	Objects int `json:"objects"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"node":    s.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		stats := s.view.Stats()
		_, centred := s.view.Center()
		ready := centred && stats.Ready > 0 && stats.Requested == 0 && stats.Loading == 0
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.Appeared).String(),
			"node":    s.ID,
			"version": version,
			"stats":   stats,
		})
	})

	s.router.GET("/cells", func(c *gin.Context) {
		snap := s.view.Snapshot()
		cells := make([]cellSummary, 0, len(snap))
		for _, e := range snap {
			sum := cellSummary{Coord: e.Coord}
			if n, ok := e.Payload.(counter); ok {
				sum.Objects = n.Len()
			}
			cells = append(cells, sum)
		}
		body := gin.H{
			"stats": s.view.Stats(),
			"cells": cells,
		}
		if center, ok := s.view.Center(); ok {
			body["center"] = center
		}
		c.JSON(http.StatusOK, body)
	})

	s.router.GET("/cells/:x/:y", func(c *gin.Context) {
		x, errX := strconv.Atoi(c.Param("x"))
		y, errY := strconv.Atoi(c.Param("y"))
		if errX != nil || errY != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cell coordinates must be integers"})
			return
		}
		coord := grid.Coord{X: x, Y: y}
		state, ok := s.view.State(coord)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cell not resident", "cell": coord})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cell": coord, "state": state})
	})

	s.router.GET("/query", func(c *gin.Context) {
		area, ok := parseArea(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "x, y, w and h must be finite numbers with w, h > 0"})
			return
		}
		objects := make([]content.Object, 0)
		searched := 0
		for _, e := range s.view.Snapshot() {
			q, ok := e.Payload.(Querier)
			if !ok {
				continue
			}
			searched++
			objects = append(objects, q.Query(area)...)
		}
		c.JSON(http.StatusOK, gin.H{
			"area":    area,
			"cells":   searched,
			"objects": objects,
		})
	})
}

func parseArea(c *gin.Context) (grid.Rect, bool) {
	var vals [4]float64
	for i, key := range []string{"x", "y", "w", "h"} {
		v, err := strconv.ParseFloat(c.Query(key), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return grid.Rect{}, false
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return grid.Rect{}, false
	}
	return grid.Rect{Min: grid.Vec{X: vals[0], Y: vals[1]}, Size: grid.Vec{X: vals[2], Y: vals[3]}}, true
}
