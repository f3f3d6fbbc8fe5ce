package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"allurecuke/internal/config"
)

// configLookup supplies environment overrides; tests replace it.
var configLookup config.LookupFunc

// resolveConfigPath makes an explicit config path absolute. Empty stays empty so
// config.Resolve searches upward from the working directory.
func resolveConfigPath(configPath string) (string, error) {
	if strings.TrimSpace(configPath) == "" {
		return "", nil
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}

// loadConfig resolves and loads the config, falling back to defaults without a file.
func loadConfig(configPath string) (config.Config, string, error) {
	resolved, err := resolveConfigPath(configPath)
	if err != nil {
		return config.Config{}, "", err
	}
	return config.Resolve(resolved, configLookup)
}
