package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Methods != "template,csrt,kcf,mosse" {
		t.Errorf("Methods = %q, want all four", cfg.Methods)
	}
	if cfg.Metric != "zncc" {
		t.Errorf("Metric = %q, want zncc", cfg.Metric)
	}
	if cfg.LossThreshold != 0.5 {
		t.Errorf("LossThreshold = %v, want 0.5", cfg.LossThreshold)
	}
	if !cfg.Display {
		t.Error("Display should default to true")
	}
	if cfg.DBPath != "" || cfg.ServeAddr != "" {
		t.Error("persistence and server should default to off")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackcmp.yaml")
	content := `
methods: template,kcf
metric: ncc
loss_threshold: 0.4
smooth: true
db_path: results.db
serve_addr: ":9090"
display: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Methods != "template,kcf" {
		t.Errorf("Methods = %q, want template,kcf", cfg.Methods)
	}
	if cfg.Metric != "ncc" {
		t.Errorf("Metric = %q, want ncc", cfg.Metric)
	}
	if cfg.LossThreshold != 0.4 {
		t.Errorf("LossThreshold = %v, want 0.4", cfg.LossThreshold)
	}
	if !cfg.Smooth {
		t.Error("Smooth should be true")
	}
	if cfg.DBPath != "results.db" {
		t.Errorf("DBPath = %q, want results.db", cfg.DBPath)
	}
	if cfg.ServeAddr != ":9090" {
		t.Errorf("ServeAddr = %q, want :9090", cfg.ServeAddr)
	}
	if cfg.Display {
		t.Error("Display should be false")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackcmp.yaml")
	if err := os.WriteFile(path, []byte("metric: sad\n"), 0644); err != nil {
		t.Fatalf("write config error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Metric != "sad" {
		t.Errorf("Metric = %q, want sad", cfg.Metric)
	}
	if cfg.LossThreshold != 0.5 {
		t.Errorf("LossThreshold = %v, want default 0.5", cfg.LossThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() on a missing file should return an error")
	}
}
