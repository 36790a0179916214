// Package config loads and saves the agencyplan TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all agencyplan configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// GeneralConfig holds plan and storage locations.
type GeneralConfig struct {
	PlanFile   string `toml:"plan_file,omitempty"`
	StorePath  string `toml:"store_path,omitempty"`
	StorageKey string `toml:"storage_key,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard behavior.
type TUIConfig struct {
	AutosaveIntervalSec int  `toml:"autosave_interval_sec"`
	Notifications       bool `toml:"notifications"`
}

// DaemonConfig holds defaults for `agencyplan daemon`.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

const (
	defaultAutosaveSec = 30
	minAutosaveSec     = 5
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutosaveIntervalSec: defaultAutosaveSec,
			Notifications:       true,
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8788",
			IntervalSec: 15,
		},
	}
}

// AutosaveInterval returns the effective autosave period. Values under the
// minimum fall back to the default.
func (c Config) AutosaveInterval() time.Duration {
	sec := c.TUI.AutosaveIntervalSec
	if sec < minAutosaveSec {
		sec = defaultAutosaveSec
	}
	return time.Duration(sec) * time.Second
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agencyplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agencyplan")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is derived from the user's config dir
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
