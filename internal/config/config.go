package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/qatriage/internal/export"
	"gopkg.in/yaml.v3"
)

// HistoryConfig represents the opt-in run history configuration
type HistoryConfig struct {
	// Enabled records every analysis in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database (empty = $QATRIAGE_HOME/history.db)
	DBPath string `yaml:"db_path"`

	// KeepRuns is the maximum number of runs kept (0 = unlimited)
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents qatriage configuration options
type Config struct {
	// MaxClusters is the upper bound on the number of failure groups
	MaxClusters int `yaml:"max_clusters"`

	// MaxMessageLen is the truncation length of simplified messages
	MaxMessageLen int `yaml:"max_message_len"`

	// RandomSeed seeds clustering so repeated runs give identical groups
	RandomSeed int64 `yaml:"random_seed"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Diagnosis attaches a probable cause and fix to every failure
	Diagnosis bool `yaml:"diagnosis"`

	// ExportFormat is the default format of --output files
	ExportFormat string `yaml:"export_format"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

var validLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		MaxClusters:   3,
		MaxMessageLen: 300,
		RandomSeed:    42,
		LogLevel:      "info",
		Diagnosis:     true,
		ExportFormat:  "csv",
		History: HistoryConfig{
			Enabled:  false,
			DBPath:   "",
			KeepRuns: 100,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Keys whose zero value is meaningful are merged on presence, so
	// "random_seed: 0" or "diagnosis: false" override the defaults.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fileCfg.MaxClusters != 0 {
		cfg.MaxClusters = fileCfg.MaxClusters
	}
	if fileCfg.MaxMessageLen != 0 {
		cfg.MaxMessageLen = fileCfg.MaxMessageLen
	}
	if _, exists := rawMap["random_seed"]; exists {
		cfg.RandomSeed = fileCfg.RandomSeed
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(fileCfg.LogLevel)
	}
	if _, exists := rawMap["diagnosis"]; exists {
		cfg.Diagnosis = fileCfg.Diagnosis
	}
	if fileCfg.ExportFormat != "" {
		cfg.ExportFormat = strings.ToLower(fileCfg.ExportFormat)
	}

	if historySection, exists := rawMap["history"]; exists && historySection != nil {
		historyMap, _ := historySection.(map[string]interface{})

		if _, exists := historyMap["enabled"]; exists {
			cfg.History.Enabled = fileCfg.History.Enabled
		}
		if _, exists := historyMap["db_path"]; exists {
			cfg.History.DBPath = fileCfg.History.DBPath
		}
		if _, exists := historyMap["keep_runs"]; exists {
			cfg.History.KeepRuns = fileCfg.History.KeepRuns
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .qatriage/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".qatriage", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(maxClusters *int, maxMessageLen *int, seed *int64, logLevel *string, diagnosis *bool, exportFormat *string) {
	if maxClusters != nil {
		c.MaxClusters = *maxClusters
	}
	if maxMessageLen != nil {
		c.MaxMessageLen = *maxMessageLen
	}
	if seed != nil {
		c.RandomSeed = *seed
	}
	if logLevel != nil {
		c.LogLevel = strings.ToLower(*logLevel)
	}
	if diagnosis != nil {
		c.Diagnosis = *diagnosis
	}
	if exportFormat != nil {
		c.ExportFormat = strings.ToLower(*exportFormat)
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.MaxClusters < 1 {
		return fmt.Errorf("max_clusters must be >= 1, got %d", c.MaxClusters)
	}

	if c.MaxMessageLen < 1 {
		return fmt.Errorf("max_message_len must be >= 1, got %d", c.MaxMessageLen)
	}

	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if _, err := export.ParseFormat(c.ExportFormat); err != nil {
		return fmt.Errorf("invalid export_format: %w", err)
	}

	if c.History.KeepRuns < 0 {
		return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
	}

	return nil
}
