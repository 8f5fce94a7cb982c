package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Sync     SyncConfig     `toml:"sync"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig contains the websocket endpoint settings.
type ServerConfig struct {
	URL            string `toml:"url"`
	DialsPerMinute int    `toml:"dials_per_minute"`
}

// DatabaseConfig contains local cache connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains sync cycle scheduling settings, in seconds.
type SyncConfig struct {
	Interval     int `toml:"interval"`
	InitialDelay int `toml:"initial_delay"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Interval returns the steady sync cycle interval as a [time.Duration].
func (c SyncConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// InitialDelayDuration returns the warm-up delay before the first cycle.
func (c SyncConfig) InitialDelayDuration() time.Duration {
	return time.Duration(c.InitialDelay) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
