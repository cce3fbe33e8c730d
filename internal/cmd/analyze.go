package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/qatriage/internal/analysis"
	"github.com/harrison/qatriage/internal/config"
	"github.com/harrison/qatriage/internal/display"
	"github.com/harrison/qatriage/internal/export"
	"github.com/harrison/qatriage/internal/history"
	"github.com/harrison/qatriage/internal/logger"
	"github.com/harrison/qatriage/internal/models"
	"github.com/spf13/cobra"
)

// NewAnalyzeCommand creates the 'qatriage analyze' command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <output.xml>",
		Short: "Group and diagnose the failures of a Robot Framework report",
		Long: `Analyze a Robot Framework output.xml report.

Every failure message of every failed test is simplified, grouped with
similar messages and given a probable cause and suggested fix.

Examples:
  # Show the analysis in the terminal
  qatriage analyze output.xml

  # Export to CSV (format taken from the extension)
  qatriage analyze output.xml -o failures.csv

  # Print JSON to stdout
  qatriage analyze output.xml --format json

  # Up to 5 groups, recorded in the run history
  qatriage analyze output.xml --max-clusters 5 --record`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .qatriage/config.yaml)")
	cmd.Flags().Int("max-clusters", config.DefaultConfig().MaxClusters, "Maximum number of failure groups")
	cmd.Flags().Int("max-message-len", config.DefaultConfig().MaxMessageLen, "Length limit of simplified messages")
	cmd.Flags().Int64("seed", config.DefaultConfig().RandomSeed, "Random seed for reproducible grouping")
	cmd.Flags().String("format", "", "Export format (csv|json|yaml|markdown|md|html)")
	cmd.Flags().StringP("output", "o", "", "Write the export to this file instead of stdout")
	cmd.Flags().String("log-level", "", "Log level (trace|debug|info|warn|error)")
	cmd.Flags().Bool("no-diagnosis", false, "Do not attach probable causes and fixes")
	cmd.Flags().Bool("record", false, "Record the run in the history database")
	cmd.Flags().Bool("quiet", false, "Only print errors and exports")
	cmd.Flags().String("db-path", "", "Path to history database (default: $QATRIAGE_HOME/history.db)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	reportPath := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := mergeAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	logLevel := cfg.LogLevel
	if quiet {
		logLevel = "error"
	}
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), logLevel)

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	log.Debugf("analyzing %s (max_clusters=%d, seed=%d)", reportPath, cfg.MaxClusters, cfg.RandomSeed)
	result, err := analysis.Analyze(data, analysis.Options{
		MaxClusters:   cfg.MaxClusters,
		MaxMessageLen: cfg.MaxMessageLen,
		Seed:          cfg.RandomSeed,
		SkipDiagnosis: !cfg.Diagnosis,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", reportPath, err)
	}

	log.LogRunSummary(result.Run)
	log.LogGroups(result.Groups)
	for _, rec := range result.Records {
		log.Tracef("%s: %s: %s", rec.GroupLabel(), rec.TestName, rec.SimplifiedMessage)
	}

	if err := emitAnalysis(cmd, cfg, result, log, quiet); err != nil {
		return err
	}

	record, _ := cmd.Flags().GetBool("record")
	if record || cfg.History.Enabled {
		if err := recordRun(cmd, cfg, reportPath, result, log); err != nil {
			return err
		}
	}

	return nil
}

// mergeAnalyzeFlags applies explicitly set flags over the configuration.
func mergeAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	var maxClustersPtr, maxLenPtr *int
	var seedPtr *int64
	var logLevelPtr, formatPtr *string
	var diagnosisPtr *bool

	if flags.Changed("max-clusters") {
		v, _ := flags.GetInt("max-clusters")
		maxClustersPtr = &v
	}
	if flags.Changed("max-message-len") {
		v, _ := flags.GetInt("max-message-len")
		maxLenPtr = &v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		seedPtr = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		logLevelPtr = &v
	}
	if flags.Changed("no-diagnosis") {
		v, _ := flags.GetBool("no-diagnosis")
		enabled := !v
		diagnosisPtr = &enabled
	}
	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		f, err := export.ParseFormat(v)
		if err != nil {
			return err
		}
		canonical := string(f)
		formatPtr = &canonical
	}

	cfg.MergeWithFlags(maxClustersPtr, maxLenPtr, seedPtr, logLevelPtr, diagnosisPtr, formatPtr)
	return nil
}

// emitAnalysis writes the export file, the stdout export, or the terminal
// view, depending on --output and --format.
func emitAnalysis(cmd *cobra.Command, cfg *config.Config, result *models.Analysis, log *logger.ConsoleLogger, quiet bool) error {
	out := cmd.OutOrStdout()
	outputPath, _ := cmd.Flags().GetString("output")
	formatSet := cmd.Flags().Changed("format")

	if outputPath != "" {
		format, err := resolveFormat(cfg.ExportFormat, outputPath, formatSet)
		if err != nil {
			return err
		}
		content, err := export.Render(format, result)
		if err != nil {
			return fmt.Errorf("failed to export analysis: %w", err)
		}
		if err := export.WriteFile(outputPath, content); err != nil {
			return err
		}
		log.Infof("Exported %d failures to %s (%s)", len(result.Records), outputPath, format)

		if !quiet {
			display.NewRenderer(out).RenderAnalysis(result)
		}
		return nil
	}

	if formatSet {
		format, err := export.ParseFormat(cfg.ExportFormat)
		if err != nil {
			return err
		}
		content, err := export.Render(format, result)
		if err != nil {
			return fmt.Errorf("failed to export analysis: %w", err)
		}
		fmt.Fprint(out, content)
		return nil
	}

	if !quiet {
		display.NewRenderer(out).RenderAnalysis(result)
	}
	return nil
}

// resolveFormat picks the export format of an output file: --format, then the
// file extension, then export_format from the configuration.
func resolveFormat(configured, outputPath string, formatSet bool) (export.Format, error) {
	if !formatSet {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return export.ParseFormat(configured)
}

func recordRun(cmd *cobra.Command, cfg *config.Config, reportPath string, result *models.Analysis, log *logger.ConsoleLogger) error {
	dbPath, err := historyDBPath(cmd, cfg)
	if err != nil {
		return err
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	source := reportPath
	if abs, err := filepath.Abs(reportPath); err == nil {
		source = abs
	}

	ctx := context.Background()
	run := history.NewRun(source, result, cfg.MaxClusters, cfg.RandomSeed)
	if err := store.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	log.Infof("Recorded run %s", run.ShortID())

	pruned, err := store.Prune(ctx, cfg.History.KeepRuns)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	if pruned > 0 {
		log.Debugf("pruned %d old runs (keep_runs=%d)", pruned, cfg.History.KeepRuns)
	}
	return nil
}
