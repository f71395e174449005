package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danbim/application-tracker/internal/config"
	"github.com/danbim/application-tracker/internal/store"
)

const dbFileName = "tracker.db"

// env is what every command needs: the loaded config and an open store.
type env struct {
	cfg     config.Config
	cfgPath string
	db      *store.DB
}

func openEnv(g *globalFlags) (*env, error) {
	if err := os.MkdirAll(g.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	cfgPath, err := config.EnsureUserConfig(g.dataDir, g.defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, exitError(2, "%s: %v", cfgPath, err)
	}

	db, err := store.Open(filepath.Join(g.dataDir, dbFileName))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, cfgPath: cfgPath, db: db}, nil
}

func (e *env) Close() error { return e.db.Close() }
