package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxClusters != 3 {
		t.Errorf("MaxClusters = %d, want 3", cfg.MaxClusters)
	}
	if cfg.MaxMessageLen != 300 {
		t.Errorf("MaxMessageLen = %d, want 300", cfg.MaxMessageLen)
	}
	if cfg.RandomSeed != 42 {
		t.Errorf("RandomSeed = %d, want 42", cfg.RandomSeed)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if !cfg.Diagnosis {
		t.Error("Diagnosis = false, want true")
	}
	if cfg.ExportFormat != "csv" {
		t.Errorf("ExportFormat = %q, want %q", cfg.ExportFormat, "csv")
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	path := writeConfig(t, `max_clusters: 5
max_message_len: 120
random_seed: 7
log_level: DEBUG
diagnosis: false
export_format: json
history:
  enabled: true
  db_path: /tmp/qatriage/history.db
  keep_runs: 10
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MaxClusters != 5 {
		t.Errorf("MaxClusters = %d, want 5", cfg.MaxClusters)
	}
	if cfg.MaxMessageLen != 120 {
		t.Errorf("MaxMessageLen = %d, want 120", cfg.MaxMessageLen)
	}
	if cfg.RandomSeed != 7 {
		t.Errorf("RandomSeed = %d, want 7", cfg.RandomSeed)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Diagnosis {
		t.Error("Diagnosis = true, want false")
	}
	if cfg.ExportFormat != "json" {
		t.Errorf("ExportFormat = %q, want %q", cfg.ExportFormat, "json")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.History.DBPath != "/tmp/qatriage/history.db" {
		t.Errorf("History.DBPath = %q", cfg.History.DBPath)
	}
	if cfg.History.KeepRuns != 10 {
		t.Errorf("History.KeepRuns = %d, want 10", cfg.History.KeepRuns)
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.MaxClusters != 3 || cfg.RandomSeed != 42 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

// TestLoadConfigInvalidYAML tests error handling for malformed YAML
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, `
max_clusters: 5
random_seed: [this is not valid
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() expected error for invalid YAML, got nil")
	}
}

// TestLoadConfigPartialValues tests that partial config merges with defaults
func TestLoadConfigPartialValues(t *testing.T) {
	path := writeConfig(t, `max_clusters: 8
history:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MaxClusters != 8 {
		t.Errorf("MaxClusters = %d, want 8", cfg.MaxClusters)
	}
	if cfg.MaxMessageLen != 300 {
		t.Errorf("MaxMessageLen = %d, want 300 (default)", cfg.MaxMessageLen)
	}
	if cfg.RandomSeed != 42 {
		t.Errorf("RandomSeed = %d, want 42 (default)", cfg.RandomSeed)
	}
	if !cfg.Diagnosis {
		t.Error("Diagnosis should keep its default when absent")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.History.KeepRuns != 100 {
		t.Errorf("History.KeepRuns = %d, want 100 (default)", cfg.History.KeepRuns)
	}
}

// TestLoadConfigZeroSeed verifies an explicit zero seed is not mistaken for "unset"
func TestLoadConfigZeroSeed(t *testing.T) {
	path := writeConfig(t, "random_seed: 0\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RandomSeed != 0 {
		t.Errorf("RandomSeed = %d, want 0", cfg.RandomSeed)
	}
}

// TestEmptyConfigFile tests that an empty file yields defaults
func TestEmptyConfigFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxClusters != 3 || cfg.LogLevel != "info" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".qatriage"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".qatriage", "config.yaml"), []byte("max_clusters: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.MaxClusters != 4 {
		t.Errorf("MaxClusters = %d, want 4", cfg.MaxClusters)
	}

	cfg, err = LoadConfigFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFromDir() on empty dir error = %v", err)
	}
	if cfg.MaxClusters != 3 {
		t.Errorf("MaxClusters = %d, want 3 (default)", cfg.MaxClusters)
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	maxClusters := 6
	maxLen := 80
	seed := int64(1)
	level := "WARN"
	diagnosis := false
	format := "HTML"

	cfg.MergeWithFlags(&maxClusters, &maxLen, &seed, &level, &diagnosis, &format)

	if cfg.MaxClusters != 6 {
		t.Errorf("MaxClusters = %d, want 6", cfg.MaxClusters)
	}
	if cfg.MaxMessageLen != 80 {
		t.Errorf("MaxMessageLen = %d, want 80", cfg.MaxMessageLen)
	}
	if cfg.RandomSeed != 1 {
		t.Errorf("RandomSeed = %d, want 1", cfg.RandomSeed)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.Diagnosis {
		t.Error("Diagnosis = true, want false")
	}
	if cfg.ExportFormat != "html" {
		t.Errorf("ExportFormat = %q, want %q", cfg.ExportFormat, "html")
	}
}

func TestMergeWithFlagsNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeWithFlags(nil, nil, nil, nil, nil, nil)

	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("nil flags changed config: got %+v, want %+v", cfg, want)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero clusters", mutate: func(c *Config) { c.MaxClusters = 0 }, wantErr: "max_clusters"},
		{name: "negative length", mutate: func(c *Config) { c.MaxMessageLen = -1 }, wantErr: "max_message_len"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "log_level"},
		{name: "bad format", mutate: func(c *Config) { c.ExportFormat = "xlsx" }, wantErr: "export_format"},
		{name: "md alias", mutate: func(c *Config) { c.ExportFormat = "md" }},
		{name: "yml alias", mutate: func(c *Config) { c.ExportFormat = "yml" }},
		{name: "negative keep", mutate: func(c *Config) { c.History.KeepRuns = -1 }, wantErr: "keep_runs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
