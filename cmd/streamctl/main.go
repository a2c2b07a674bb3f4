package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MasterLaplace/Optimizing/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to streamctl config.toml (defaults to cmd/streamctl/config.toml when present)")
	flag.Parse()

	logger := observability.InitLogger("streamctl")
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "streamctl: %v\n", err)
		os.Exit(1)
	}
	applyLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("streamctl.run failed")
		os.Exit(1)
	}
}
