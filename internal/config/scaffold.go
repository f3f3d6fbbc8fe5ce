package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configTemplate = `version: 1
# Directory receiving the Allure *-result.json files and attachments.
output_dir: %q
# Remove previous results before each run.
clean_dir: true
# Prepended to every feature name, e.g. "[nightly] ".
feature_prefix: ""
log_level: "info"
log_format: "text"
`

// Scaffold writes a default config file to path, refusing to overwrite.
// An empty outputDir uses DefaultOutputDir.
func Scaffold(path, outputDir string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	if strings.TrimSpace(outputDir) == "" {
		outputDir = DefaultOutputDir
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", path)
		}
		return fmt.Errorf("config file already exists at %q", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(fmt.Sprintf(configTemplate, outputDir)), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
