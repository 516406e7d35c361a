// Package config loads editor settings from a YAML file, with sensible
// defaults when the file is missing.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TilesDir        string `yaml:"tiles_dir"`
	BackendURL      string `yaml:"backend_url"`
	HistoryLimit    int    `yaml:"history_limit"`
	TileSize        int    `yaml:"tile_size"`
	GridWidth       int    `yaml:"grid_width"`
	GridHeight      int    `yaml:"grid_height"`
	AutosaveSeconds int    `yaml:"autosave_seconds"`
	LogFile         string `yaml:"log_file"`
}

func Default() *Config {
	return &Config{
		TilesDir:     "tiles",
		BackendURL:   "http://localhost:8000",
		HistoryLimit: 100,
		TileSize:     16,
		GridWidth:    16,
		GridHeight:   16,
	}
}

// Load reads path, falling back to defaults when it does not exist. A file
// that exists but fails to parse is an error; silently ignoring a broken
// config hides typos.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = Default().HistoryLimit
	}
	if cfg.TileSize <= 0 {
		cfg.TileSize = Default().TileSize
	}
	if cfg.GridWidth <= 0 {
		cfg.GridWidth = Default().GridWidth
	}
	if cfg.GridHeight <= 0 {
		cfg.GridHeight = Default().GridHeight
	}
	return cfg, nil
}
