package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.URL != "ws://localhost:8000/sock" {
		t.Errorf("unexpected server url: %q", config.Server.URL)
	}
	if config.Server.DialsPerMinute != 12 {
		t.Errorf("unexpected dial budget: %d", config.Server.DialsPerMinute)
	}
	if config.Database.Path != "audiostash.db" {
		t.Errorf("unexpected database path: %q", config.Database.Path)
	}
	if config.Sync.IntervalDuration() != 30*time.Second {
		t.Errorf("unexpected sync interval: %v", config.Sync.IntervalDuration())
	}
	if config.Sync.InitialDelayDuration() != time.Second {
		t.Errorf("unexpected initial delay: %v", config.Sync.InitialDelayDuration())
	}
	if config.Logging.Level != "info" {
		t.Errorf("unexpected log level: %q", config.Logging.Level)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[server]
url = "wss://stash.example.net/sock"
dials_per_minute = 6

[sync]
interval = 60
initial_delay = 5
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Server.URL != "wss://stash.example.net/sock" {
			t.Errorf("unexpected server url: %q", config.Server.URL)
		}
		if config.Sync.IntervalDuration() != time.Minute {
			t.Errorf("unexpected interval: %v", config.Sync.IntervalDuration())
		}
	})

	t.Run("MissingFileErrors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("MalformedFileErrors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[server\nurl = "), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for malformed file")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("WritesExampleConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("created config does not load: %v", err)
		}
		if config.Server.URL == "" {
			t.Error("created config is missing defaults")
		}
	})

	t.Run("RefusesToOverwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error for existing file")
		}
	})
}
