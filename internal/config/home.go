package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the qatriage home directory.
const HomeEnvVar = "QATRIAGE_HOME"

// GetHome returns the qatriage home directory
// Priority order:
//  1. QATRIAGE_HOME environment variable (if set)
//  2. ~/.qatriage
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnvVar)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".qatriage")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create qatriage home directory: %w", err)
	}

	return home, nil
}

// GetHistoryDBPath returns the history database path: the configured
// history.db_path, or $QATRIAGE_HOME/history.db when unset.
func (c *Config) GetHistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}

	home, err := GetHome()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "history.db"), nil
}
