// internal/config/config.go
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Addr    string `yaml:"addr" json:"addr"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Ranking struct {
		// DefaultFormula is a formula name or ID; empty means first by name.
		DefaultFormula string `yaml:"default_formula" json:"default_formula"`
		ActiveOnly     bool   `yaml:"active_only" json:"active_only"`
	} `yaml:"ranking" json:"ranking"`

	Posting struct {
		RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
		Burst             int     `yaml:"burst" json:"burst"`
		TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
		UserAgent         string  `yaml:"user_agent" json:"user_agent"`
	} `yaml:"posting" json:"posting"`

	Maintenance struct {
		CheckpointCron       string `yaml:"checkpoint_cron" json:"checkpoint_cron"`
		PurgeCron            string `yaml:"purge_cron" json:"purge_cron"`
		PurgeDumpedAfterDays int    `yaml:"purge_dumped_after_days" json:"purge_dumped_after_days"`
	} `yaml:"maintenance" json:"maintenance"`
}

// Default returns the values used when a key is absent from the file.
func Default() Config {
	var cfg Config
	cfg.App.Addr = "127.0.0.1:38471"
	cfg.App.DataDir = "."
	cfg.Ranking.ActiveOnly = true
	cfg.Posting.RequestsPerSecond = 1.0
	cfg.Posting.Burst = 2
	cfg.Posting.TimeoutSeconds = 15
	cfg.Posting.UserAgent = "Mozilla/5.0"
	cfg.Maintenance.CheckpointCron = "@every 1h"
	cfg.Maintenance.PurgeCron = "@daily"
	cfg.Maintenance.PurgeDumpedAfterDays = 90
	return cfg
}

func (c Config) PostingTimeout() time.Duration {
	return time.Duration(c.Posting.TimeoutSeconds) * time.Second
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
