package config

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Normalize.
const (
	DefaultOutputDir = "gen/allure-results"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the formatter configuration read from .allurecuke.yml.
type Config struct {
	Version       int    `yaml:"version"`
	OutputDir     string `yaml:"output_dir"`
	CleanDir      *bool  `yaml:"clean_dir"`
	FeaturePrefix string `yaml:"feature_prefix"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{Version: 1}
	Normalize(&cfg)
	return cfg
}

// Clean reports whether the output directory is wiped before a run.
func (c Config) Clean() bool {
	return c.CleanDir == nil || *c.CleanDir
}

// Parse decodes a single YAML document, rejecting unknown fields.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if err == io.EOF {
			return Config{}, fmt.Errorf("parse config: empty document")
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(new(yaml.Node)); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
