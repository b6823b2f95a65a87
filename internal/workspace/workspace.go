// Package workspace handles workspace initialization, validation and the
// session (active mode) state.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"concierge/internal/model"
	atomicyaml "concierge/internal/yaml"
)

const ConfigFile = "workspace.json"

const configVersion = "1.0"

// Subdirs is the directory skeleton every workspace carries.
var Subdirs = []string{"context", "jobs", "packages", "artifacts", "logs", "cache", "scratch"}

type Config struct {
	WorkspacePath string `json:"workspace_path"`
	CreatedAt     string `json:"created_at"`
	Version       string `json:"version"`
}

// Init creates the workspace structure and config. Fails if a workspace is
// already initialized at the path.
func Init(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}

	configPath := filepath.Join(absPath, ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return nil, fmt.Errorf("workspace already exists at %s", absPath)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range Subdirs {
		if err := os.MkdirAll(filepath.Join(absPath, d), 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	cfg := &Config{
		WorkspacePath: absPath,
		CreatedAt:     model.NowUTC(),
		Version:       configVersion,
	}

	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	// JSON is a YAML subset, so the atomic write path's re-parse check holds.
	if err := atomicyaml.AtomicWriteRaw(configPath, content); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	return cfg, nil
}

// Validate checks the workspace structure and config parse.
func Validate(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("workspace not found at %s", path)
	}

	configPath := filepath.Join(path, ConfigFile)
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config file missing: %s", configPath)
	}

	for _, d := range Subdirs {
		info, err := os.Stat(filepath.Join(path, d))
		if err != nil || !info.IsDir() {
			return fmt.Errorf("missing subdirectory: %s", d)
		}
	}

	if _, err := LoadConfig(path); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	content, err := os.ReadFile(filepath.Join(path, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
