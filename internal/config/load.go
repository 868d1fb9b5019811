package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/nifkit/pkg/nif"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values a file or flag may have set wrong.
func (c *Config) Validate() error {
	if _, err := nif.ParseGame(c.Export.Game); err != nil {
		return fmt.Errorf("export.game: %w", err)
	}
	if c.Export.UVTolerance < 0 || c.Export.NormalTolerance < 0 {
		return fmt.Errorf("export tolerances must not be negative")
	}
	return nil
}

// ExportGame returns the parsed export game.
func (c *Config) ExportGame() nif.Game {
	g, _ := nif.ParseGame(c.Export.Game)
	return g
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "nifkit")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "nifkit")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "nifkit")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "nifkit")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// LoadBoneNames reads a YAML map from NIF bone names to scene bone names.
func LoadBoneNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parsing bone names %s: %w", path, err)
	}
	return names, nil
}
