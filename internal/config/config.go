// Package config loads the observer's yaml configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceURL string `yaml:"service_url"` // websocket URL of the authoritative service
	PlayerSlot uint8  `yaml:"player_slot"` // my owner id, 1..MaxPlayers; 0 observes only

	LocalTickMs      int `yaml:"local_tick_ms"`      // automaton tick interval
	ResyncSeconds    int `yaml:"resync_seconds"`     // authoritative fetch cadence
	DriftTolerance   int `yaml:"drift_tolerance"`    // generations local may run ahead
	ForceSyncSeconds int `yaml:"force_sync_seconds"` // max age of confirmed state

	ListenPort string `yaml:"listen_port"` // viewer server port, PORT env wins
	ArchiveDir string `yaml:"archive_dir"` // snapshot journal directory, empty disables
}

func defaults() Config {
	return Config{
		ServiceURL:       "ws://localhost:9000/ws",
		PlayerSlot:       0,
		LocalTickMs:      100,
		ResyncSeconds:    5,
		DriftTolerance:   3,
		ForceSyncSeconds: 15,
		ListenPort:       "8000",
	}
}

// Load reads the yaml file at path, falling back to defaults when path is
// empty. The PORT env var overrides the listen port either way.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenPort = port
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service_url is required")
	}
	if c.LocalTickMs <= 0 {
		return fmt.Errorf("local_tick_ms must be positive")
	}
	if c.ResyncSeconds <= 0 {
		return fmt.Errorf("resync_seconds must be positive")
	}
	if c.DriftTolerance < 0 {
		return fmt.Errorf("drift_tolerance must not be negative")
	}
	if c.ForceSyncSeconds <= 0 {
		return fmt.Errorf("force_sync_seconds must be positive")
	}
	return nil
}

func (c Config) LocalTick() time.Duration {
	return time.Duration(c.LocalTickMs) * time.Millisecond
}

func (c Config) ResyncInterval() time.Duration {
	return time.Duration(c.ResyncSeconds) * time.Second
}

func (c Config) ForceSyncInterval() time.Duration {
	return time.Duration(c.ForceSyncSeconds) * time.Second
}
