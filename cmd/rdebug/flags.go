package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/loykin/rdebug/internal/config"
	"github.com/loykin/rdebug/internal/registry"
)

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath   string
	RegistryPath string
}

// DebugFlags holds the mode switches for the debug command.
type DebugFlags struct {
	Lite       bool
	PostMortem bool
}

// setup loads configuration, wires the logger, and opens the registry.
func (g *GlobalFlags) setup(ctx context.Context) (config.Config, *slog.Logger, registry.Store, func(), error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}
	if g.RegistryPath != "" {
		cfg.Registry.Type = "sqlite"
		cfg.Registry.Path = g.RegistryPath
	}
	log, closeLog := cfg.Log.Setup(os.Stderr)
	slog.SetDefault(log)
	reg, err := registry.Open(ctx, cfg.Registry)
	if err != nil {
		_ = closeLog()
		return config.Config{}, nil, nil, nil, err
	}
	cleanup := func() {
		_ = reg.Close()
		_ = closeLog()
	}
	return cfg, log, reg, cleanup, nil
}
