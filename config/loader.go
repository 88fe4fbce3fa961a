package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadEnv loads a .env file into the process environment if one exists.
// Missing files are not an error; variables already set win.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, applying defaults for
// anything unset. ${VAR} references in the file are expanded from the
// environment before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Load resolves configuration: defaults, then an optional config file.
// An empty path tries semlink.yaml in the working directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		candidate := "semlink.yaml"
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return cfg, nil
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(loaded)
	return cfg, nil
}

// SaveToFile writes the configuration as YAML, creating parent directories
// as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
