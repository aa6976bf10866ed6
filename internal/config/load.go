package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/qjebbs/go-jsons"
)

// GlobalConfig returns the path to the user-wide config file.
func GlobalConfig() string {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, appName+".json")
	}
	return filepath.Join(homeDir(), ".config", appName, appName+".json")
}

// GlobalConfigData returns the path to the config file vlist itself writes,
// e.g. through `vlist config set`.
func GlobalConfigData() string {
	xdgDataHome := os.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName, appName+".json")
	}
	return filepath.Join(homeDir(), ".local", "share", appName, appName+".json")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

// ProjectConfigs returns the project-local config files looked up in
// workingDir, lowest priority first.
func ProjectConfigs(workingDir string) []string {
	return []string{
		filepath.Join(workingDir, appName+".json"),
		filepath.Join(workingDir, "."+appName+".json"),
	}
}

// Load reads and merges, in increasing priority, the global config, the data
// config, the project configs and extraPath (if set), then applies
// environment overrides and validates the result.
func Load(workingDir, extraPath string, debug bool) (*Config, error) {
	paths := append([]string{GlobalConfig(), GlobalConfigData()}, ProjectConfigs(workingDir)...)
	if extraPath != "" {
		paths = append(paths, extraPath)
	}

	cfg, err := loadFromFiles(paths, extraPath)
	if err != nil {
		return nil, err
	}
	cfg.workingDir = workingDir
	cfg.dataConfigDir = GlobalConfigData()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if debug {
		cfg.Options.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFiles merges every existing file in paths over the defaults. A
// missing required file is an error; other missing files are skipped.
func loadFromFiles(paths []string, required string) (*Config, error) {
	var inputs []any
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && path != required {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
		inputs = append(inputs, data)
	}

	cfg := defaultConfig()
	if len(inputs) == 0 {
		return cfg, nil
	}
	merged, err := jsons.Merge(inputs...)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config files: %w", err)
	}
	if err := json.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("VLIST_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse VLIST_DEBUG: %w", err)
		}
		cfg.Options.Debug = debug
	}
	if v := os.Getenv("VLIST_ESTIMATED_ITEM_HEIGHT"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("failed to parse VLIST_ESTIMATED_ITEM_HEIGHT: %w", err)
		}
		cfg.Engine.EstimatedItemHeight = h
	}
	if v := os.Getenv("VLIST_PADDING_ITEM_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse VLIST_PADDING_ITEM_COUNT: %w", err)
		}
		cfg.Engine.PaddingItemCount = n
	}
	return nil
}
