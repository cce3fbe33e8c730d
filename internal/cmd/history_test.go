package cmd

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/qatriage/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordFixtureRun analyzes failingReport with --record into dbPath.
func recordFixtureRun(t *testing.T, dbPath string) {
	t.Helper()
	report := writeFile(t, "output.xml", failingReport)
	_, _, err := execute(t, NewAnalyzeCommand(), report, "--record", "--db-path", dbPath, "--quiet")
	require.NoError(t, err)
}

func TestHistoryListEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	stdout, _, err := execute(t, NewHistoryCommand(), "list", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded")
}

func TestHistoryRecordListShow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	recordFixtureRun(t, dbPath)

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)
	run := runs[0]

	assert.True(t, filepath.IsAbs(run.Source))
	assert.Equal(t, 3, run.Summary.Failed)
	assert.Equal(t, 3, run.MaxClusters)
	assert.Equal(t, int64(42), run.Seed)

	stdout, _, err := execute(t, NewHistoryCommand(), "list", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, run.ShortID())
	assert.Contains(t, stdout, "Recorded")

	stdout, _, err = execute(t, NewHistoryCommand(), "show", run.ShortID(), "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run "+run.ID)
	assert.Contains(t, stdout, "max_clusters=3 seed=42")
	assert.Contains(t, stdout, "Failures by group:")
	assert.Contains(t, stdout, "Checkout")

	stdout, _, err = execute(t, NewHistoryCommand(), "show", run.ID, "--db-path", dbPath, "--format", "json")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Len(t, doc["failures"], 3)
}

func TestHistoryShowUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, NewHistoryCommand(), "show", "deadbeef", "--db-path", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	recordFixtureRun(t, dbPath)
	_, _, err = execute(t, NewHistoryCommand(), "show", "not-a-run", "--db-path", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestHistoryClear(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	recordFixtureRun(t, dbPath)
	recordFixtureRun(t, dbPath)

	cmd := NewHistoryCommand()
	cmd.SetIn(strings.NewReader("n\n"))
	stdout, _, err := execute(t, cmd, "clear", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "WARNING")
	assert.Contains(t, stdout, "Aborted")

	stdout, _, err = execute(t, NewHistoryCommand(), "clear", "--yes", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted 2 runs")

	stdout, _, err = execute(t, NewHistoryCommand(), "list", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded")
}

func TestHistoryKeepRunsPrunes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	configPath := writeFile(t, "config.yaml", "history:\n  enabled: true\n  keep_runs: 2\n")
	report := writeFile(t, "output.xml", failingReport)

	for i := 0; i < 3; i++ {
		_, _, err := execute(t, NewAnalyzeCommand(), report, "--config", configPath, "--db-path", dbPath, "--quiet")
		require.NoError(t, err)
	}

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out strings.Builder
		assert.Equal(t, tt.want, confirmAction(strings.NewReader(tt.input), &out), "input %q", tt.input)
		assert.Contains(t, out.String(), "Continue? [y/N]")
	}
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "30s", formatAge(30*time.Second))
	assert.Equal(t, "5m", formatAge(5*time.Minute))
	assert.Equal(t, "3h", formatAge(3*time.Hour))
	assert.Equal(t, "2d", formatAge(49*time.Hour))
}
