package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads, parses, normalizes, applies env overrides to, and validates a config file.
// A relative output_dir is resolved against the directory holding the file.
func Load(path string, lookup LookupFunc) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(filepath.Dir(path), cfg.OutputDir)
	}
	return cfg, nil
}

// Resolve loads the config at path, or discovers one from the working directory when
// path is empty. Without a file the defaults plus env overrides are used and the
// returned path is empty.
func Resolve(path string, lookup LookupFunc) (Config, string, error) {
	if path == "" {
		found, err := FindConfigPath("")
		if errors.Is(err, ErrConfigNotFound) {
			cfg := Default()
			if err := ApplyEnv(&cfg, lookup); err != nil {
				return Config{}, "", err
			}
			if err := Validate(&cfg); err != nil {
				return Config{}, "", err
			}
			return cfg, "", nil
		}
		if err != nil {
			return Config{}, "", err
		}
		path = found
	}
	cfg, err := Load(path, lookup)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}
