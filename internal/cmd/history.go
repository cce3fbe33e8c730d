package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/qatriage/internal/display"
	"github.com/harrison/qatriage/internal/export"
	"github.com/harrison/qatriage/internal/history"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'qatriage history' parent command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded analysis runs",
		Long: `Commands for viewing and managing recorded analysis runs.

Runs are recorded by 'qatriage analyze --record' or for every analysis
when history.enabled is set in the configuration.`,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .qatriage/config.yaml)")
	cmd.PersistentFlags().String("db-path", "", "Path to history database (default: $QATRIAGE_HOME/history.db)")

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// openHistory opens the history store. ok is false when no database exists
// yet, in which case nothing is created.
func openHistory(cmd *cobra.Command) (store *history.Store, ok bool, err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, false, err
	}
	dbPath, err := historyDBPath(cmd, cfg)
	if err != nil {
		return nil, false, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, false, nil
	}

	store, err = history.NewStore(dbPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, true, nil
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()
			limit, _ := cmd.Flags().GetInt("limit")

			store, ok, err := openHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(output, "No runs recorded")
				return nil
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(output, "No runs recorded")
				return nil
			}

			printRuns(output, runs)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	return cmd
}

func printRuns(w io.Writer, runs []*history.Run) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "Recorded", "Report", "Tests", "Failed", "Messages", "Groups"})
	for _, r := range runs {
		groups := fmt.Sprint(r.Clusters)
		if r.ClusteringSkipped {
			groups = "skipped"
		}
		t.AppendRow(table.Row{
			r.ShortID(),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Source,
			r.Summary.Total,
			r.Summary.Failed,
			r.FailureCount,
			groups,
		})
	}
	fmt.Fprintln(w, t.Render())
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run",
		Long: `Show a recorded run. The run ID may be abbreviated to any unique prefix.

Examples:
  qatriage history show 3f2a9c1e
  qatriage history show 3f2a --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()

			store, ok, err := openHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", history.ErrRunNotFound, args[0])
			}
			defer store.Close()

			run, err := store.GetRun(context.Background(), args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("format") {
				name, _ := cmd.Flags().GetString("format")
				format, err := export.ParseFormat(name)
				if err != nil {
					return err
				}
				content, err := export.Render(format, run.Analysis())
				if err != nil {
					return fmt.Errorf("failed to export run: %w", err)
				}
				fmt.Fprint(output, content)
				return nil
			}

			renderer := display.NewRenderer(output)
			cyan := color.New(color.FgCyan, color.Bold)
			if display.IsTerminal(output) {
				cyan.EnableColor()
			} else {
				cyan.DisableColor()
			}
			cyan.Fprintf(output, "Run %s\n", run.ID)
			fmt.Fprintf(output, "  Report:   %s\n", run.Source)
			fmt.Fprintf(output, "  Recorded: %s (%s ago)\n",
				run.CreatedAt.Local().Format("2006-01-02 15:04:05"), formatAge(time.Since(run.CreatedAt)))
			fmt.Fprintf(output, "  Settings: max_clusters=%d seed=%d\n\n", run.MaxClusters, run.Seed)
			renderer.RenderAnalysis(run.Analysis())
			return nil
		},
	}

	cmd.Flags().String("format", "", "Print the run as an export (csv|json|yaml|markdown|md|html)")
	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()
			yes, _ := cmd.Flags().GetBool("yes")

			store, ok, err := openHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(output, "No runs recorded")
				return nil
			}
			defer store.Close()

			if !yes {
				fmt.Fprintf(output, "WARNING: This will delete ALL recorded runs from %s.\n", store.Path())
				if !confirmAction(cmd.InOrStdin(), output) {
					fmt.Fprintln(output, "Aborted")
					return nil
				}
			}

			deleted, err := store.Clear(context.Background())
			if err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Fprintf(output, "Deleted %d runs\n", deleted)
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirmAction asks for a y/N answer on in.
func confirmAction(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? [y/N]: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}

// formatAge renders a duration as a short human string.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
