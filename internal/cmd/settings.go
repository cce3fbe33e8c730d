package cmd

import (
	"fmt"

	"github.com/harrison/qatriage/internal/config"
	"github.com/spf13/cobra"
)

// loadConfig loads --config when given, else .qatriage/config.yaml in the
// working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// historyDBPath returns --db-path when set, else the configured location.
func historyDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if override, _ := cmd.Flags().GetString("db-path"); override != "" {
		return override, nil
	}
	path, err := cfg.GetHistoryDBPath()
	if err != nil {
		return "", fmt.Errorf("failed to get history database path: %w", err)
	}
	return path, nil
}
