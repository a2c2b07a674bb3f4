package main

import (
	"context"
	"fmt"

	"github.com/MasterLaplace/Optimizing/internal/admin"
	"github.com/MasterLaplace/Optimizing/internal/config"
	"github.com/MasterLaplace/Optimizing/internal/content"
	"github.com/MasterLaplace/Optimizing/internal/driver"
	"github.com/MasterLaplace/Optimizing/internal/grid"
	"github.com/MasterLaplace/Optimizing/internal/observability"
	"github.com/MasterLaplace/Optimizing/internal/store"
	"github.com/MasterLaplace/Optimizing/internal/streaming"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// run wires the content source, manager, admin surface and frame loop, and
// blocks until ctx is done or one of them fails.
func run(ctx context.Context, cfg config.StreamctlConfig) error {
	loader, closeLoader, err := openLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	mgr, err := streaming.New(cfg.Manager(), loader, streaming.WithObserver(observability.NewStreamObserver(cfg.Name)))
	if err != nil {
		return err
	}
	drv, err := driver.New(cfg.DriverConfig(), mgr, nil)
	if err != nil {
		_ = mgr.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Admin.Addr != "" {
		srv := admin.New(cfg.Name, cfg.Admin.Addr, cfg.Admin.CorsOrigins, mgr)
		g.Go(func() error { return srv.Serve(gctx) })
	}
	g.Go(func() error { return drv.Run(gctx) })

	log.Info().
		Str("node", cfg.Name).
		Str("source", cfg.Content.Source).
		Str("admin", cfg.Admin.Addr).
		Msg("streamctl.run started")
	err = g.Wait()
	stats := mgr.Stats()
	log.Info().
		Uint64("dispatched", stats.Dispatched).
		Uint64("completed", stats.Completed).
		Uint64("failed", stats.Failed).
		Uint64("evicted", stats.Evicted).
		Msg("streamctl.run stopped")
	return err
}

func openLoader(ctx context.Context, cfg config.StreamctlConfig) (streaming.Loader, func(), error) {
	switch cfg.Content.Source {
	case config.SourceStore:
		s, err := store.Open(ctx, cfg.Content.StorePath, cfg.Streaming.CellEdge)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Content.PopulateRadius >= 0 {
			center, err := grid.CellOf(cfg.Start(), cfg.Streaming.CellEdge)
			if err == nil {
				_, err = s.Populate(ctx, cfg.Generator(), center, cfg.Content.PopulateRadius)
			}
			if err != nil {
				_ = s.Close()
				return nil, nil, fmt.Errorf("populate store: %w", err)
			}
		}
		return store.NewLoader(s), func() { _ = s.Close() }, nil
	default:
		gen, err := content.NewGenerator(cfg.Generator())
		if err != nil {
			return nil, nil, err
		}
		return gen, func() {}, nil
	}
}
