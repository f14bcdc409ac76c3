// Package config loads tool configuration from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable settings of a comparison run. Command-line
// flags override whatever the file provides.
type Config struct {
	// Methods is the default comma-separated method list.
	Methods string `yaml:"methods"`
	// Metric names the template matcher's similarity metric.
	Metric string `yaml:"metric"`
	// LossThreshold is the template score below which the target is lost.
	LossThreshold float64 `yaml:"loss_threshold"`
	// Smooth enables Kalman smoothing of the template method's boxes.
	Smooth bool `yaml:"smooth"`
	// DBPath is the SQLite results database; empty disables persistence.
	DBPath string `yaml:"db_path"`
	// SaveFrames persists per-frame boxes, not just run summaries.
	SaveFrames bool `yaml:"save_frames"`
	// ServeAddr starts the preview server when non-empty, e.g. ":8080".
	ServeAddr string `yaml:"serve_addr"`
	// Display controls the on-screen comparison window.
	Display bool `yaml:"display"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Methods:       "template,csrt,kcf,mosse",
		Metric:        "zncc",
		LossThreshold: 0.5,
		Display:       true,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
