package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/observability"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// View is the read-only surface of a streaming manager. *streaming.Manager
// satisfies it and is safe to read from request goroutines.
type View interface {
	Snapshot() []streaming.Entry
	State(c grid.Coord) (streaming.CellState, bool)
	Stats() streaming.Stats
	Center() (grid.Coord, bool)
}

var _ View = (*streaming.Manager)(nil)

type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	view   View
	router *gin.Engine
}

func New(id, addr string, corsOrigins []string, view View) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		view:     view,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("admin", s.ID).Str("addr", s.Addr).Msg("admin.Server.Serve listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Str("admin", s.ID).Msg("admin.Server.Serve stopped")
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
