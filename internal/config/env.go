package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables overriding file values.
const (
	EnvOutputDir     = "ALLURE_CUCUMBER_OUTPUT_DIR"
	EnvCleanDir      = "ALLURE_CUCUMBER_CLEAN_DIR"
	EnvFeaturePrefix = "ALLURE_CUCUMBER_FEATURE_PREFIX"
	EnvLogLevel      = "ALLURE_CUCUMBER_LOG_LEVEL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides config values from the environment.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup(EnvOutputDir); ok && strings.TrimSpace(value) != "" {
		cfg.OutputDir = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvCleanDir); ok && strings.TrimSpace(value) != "" {
		clean, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", EnvCleanDir, value)
		}
		cfg.CleanDir = &clean
	}
	if value, ok := lookup(EnvFeaturePrefix); ok {
		cfg.FeaturePrefix = value
	}
	if value, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(value))
	}
	return nil
}
