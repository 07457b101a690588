// Package config loads the engine's TOML configuration with sane defaults
// for every knob, so an empty or missing section still yields a working
// setup.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World   WorldConfig   `toml:"world"`
	Events  EventsConfig  `toml:"events"`
	Undo    UndoConfig    `toml:"undo"`
	Assets  AssetsConfig  `toml:"assets"`
	Logging LoggingConfig `toml:"logging"`
}

type WorldConfig struct {
	InitialCapacity int `toml:"initial_capacity"`
}

type EventsConfig struct {
	RetainFrames int `toml:"retain_frames"`
}

type UndoConfig struct {
	Limit int `toml:"limit"`
}

type AssetsConfig struct {
	ManifestPath string `toml:"manifest_path"`
	BasePath     string `toml:"base_path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads a TOML config file over the defaults. A missing file is an
// error; use Defaults directly when no file is expected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		World: WorldConfig{
			InitialCapacity: 1024,
		},
		Events: EventsConfig{
			RetainFrames: 2,
		},
		Undo: UndoConfig{
			Limit: 100,
		},
		Assets: AssetsConfig{
			ManifestPath: "assets/manifest.json",
			BasePath:     "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
