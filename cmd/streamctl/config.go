package main

import (
	"os"
	"strings"

	"github.com/MasterLaplace/Optimizing/internal/config"
	"github.com/MasterLaplace/Optimizing/internal/logging"
	"github.com/rs/zerolog"
)

// loadConfig falls back to the configgen default path when it exists, and to
// defaults plus environment otherwise.
func loadConfig(path string) (config.StreamctlConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		def, err := config.DefaultPath(config.KindStreamctl)
		if err != nil {
			return config.StreamctlConfig{}, err
		}
		if _, err := os.Stat(def); err == nil {
			path = def
		}
	}
	return config.LoadStreamctlConfig(path)
}

// applyLogLevel honours the configured level unless the environment already pinned one.
func applyLogLevel(raw string) {
	if strings.TrimSpace(os.Getenv(logging.EnvLogLevel)) != "" {
		return
	}
	if level, ok := logging.ParseLevel(raw); ok {
		zerolog.SetGlobalLevel(level)
	}
}
