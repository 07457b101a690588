package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voidscript/voidscript/config"
)

// go test -run ^TestDefaults$ . -count 1
func TestDefaults(t *testing.T) {
	cfg := config.Defaults()
	if cfg.World.InitialCapacity != 1024 {
		t.Errorf("Expected default capacity 1024, got %d", cfg.World.InitialCapacity)
	}
	if cfg.Events.RetainFrames != 2 {
		t.Errorf("Expected default retention 2, got %d", cfg.Events.RetainFrames)
	}
	if cfg.Undo.Limit != 100 {
		t.Errorf("Expected default undo limit 100, got %d", cfg.Undo.Limit)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Expected info/console logging defaults, got %+v", cfg.Logging)
	}
}

// go test -run ^TestLoadOverridesDefaults$ . -count 1
func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	content := `
[world]
initial_capacity = 4096

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.World.InitialCapacity != 4096 {
		t.Errorf("Expected capacity 4096, got %d", cfg.World.InitialCapacity)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Expected debug/json logging, got %+v", cfg.Logging)
	}
	// Untouched sections keep their defaults.
	if cfg.Events.RetainFrames != 2 {
		t.Errorf("Expected default retention to survive, got %d", cfg.Events.RetainFrames)
	}
}

// go test -run ^TestLoadMissingFile$ . -count 1
func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load("/no/such/file.toml"); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

// go test -run ^TestNewLoggerFallsBackOnBadLevel$ . -count 1
func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	logger, err := config.NewLogger(config.LoggingConfig{Level: "nonsense", Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger == nil {
		t.Fatal("Expected a usable logger")
	}
	logger.Sync()
}
