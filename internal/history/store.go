// Package history stores analysis runs in a local SQLite database so past
// triage results can be listed and re-rendered.
//
// History is opt-in (history.enabled or analyze --record) and sits outside
// the analysis pipeline, which never reads or writes it.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/qatriage/internal/analysis"
	"github.com/harrison/qatriage/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when no run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousID is returned when an ID prefix matches more than one run.
var ErrAmbiguousID = errors.New("run id prefix is ambiguous")

// Run is one recorded analysis.
type Run struct {
	ID                string
	Source            string
	CreatedAt         time.Time
	MaxClusters       int
	Seed              int64
	Summary           models.TestRun
	Clusters          int
	ClusteringSkipped bool
	SkipReason        string

	// Records is only populated by GetRun.
	Records []models.FailureRecord

	// FailureCount is the number of stored failure records.
	FailureCount int
}

// NewRun captures an analysis of source for recording.
func NewRun(source string, a *models.Analysis, maxClusters int, seed int64) *Run {
	return &Run{
		Source:            source,
		MaxClusters:       maxClusters,
		Seed:              seed,
		Summary:           a.Run,
		Clusters:          a.Clusters,
		ClusteringSkipped: a.ClusteringSkipped,
		SkipReason:        a.SkipReason,
		Records:           a.Records,
		FailureCount:      len(a.Records),
	}
}

// Analysis rebuilds the analysis of a run loaded with GetRun.
func (r *Run) Analysis() *models.Analysis {
	records := r.Records
	if records == nil {
		records = []models.FailureRecord{}
	}
	return &models.Analysis{
		Run:               r.Summary,
		Records:           records,
		Groups:            analysis.Aggregate(records),
		Clusters:          r.Clusters,
		ClusteringSkipped: r.ClusteringSkipped,
		SkipReason:        r.SkipReason,
	}
}

// ShortID returns the first 8 characters of the run ID.
func (r *Run) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// Store manages the history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// applies pending migrations. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry retries statements that fail with "database is locked",
// backing off exponentially.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores run and its failure records in one transaction. An empty
// ID is replaced with a new UUID and a zero CreatedAt with the current time.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.FailureCount = len(run.Records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, source, created_at, total_tests, passed_count, failed_count, clusters, clustering_skipped, skip_reason, max_clusters, random_seed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.CreatedAt,
		run.Summary.Total, run.Summary.Passed, run.Summary.Failed,
		run.Clusters, run.ClusteringSkipped, run.SkipReason,
		run.MaxClusters, run.Seed)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO failures
		(run_id, position, test_name, raw_message, simplified_message, cluster_label, cause, fix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare failure insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range run.Records {
		if _, err := stmt.ExecContext(ctx, run.ID, i, rec.TestName, rec.RawMessage,
			rec.SimplifiedMessage, rec.ClusterLabel, rec.Cause, rec.Fix); err != nil {
			return fmt.Errorf("insert failure %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `r.id, r.source, r.created_at, r.total_tests, r.passed_count, r.failed_count,
	r.clusters, r.clustering_skipped, COALESCE(r.skip_reason, ''), r.max_clusters, r.random_seed,
	(SELECT COUNT(*) FROM failures f WHERE f.run_id = r.id)`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	err := row.Scan(&run.ID, &run.Source, &run.CreatedAt,
		&run.Summary.Total, &run.Summary.Passed, &run.Summary.Failed,
		&run.Clusters, &run.ClusteringSkipped, &run.SkipReason,
		&run.MaxClusters, &run.Seed, &run.FailureCount)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first without their records. limit <= 0
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.created_at DESC, r.rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a run and its records by full ID or unique ID prefix.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r
		WHERE r.id = ? OR r.id LIKE ? ESCAPE '\' LIMIT 2`, id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	var run *Run
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case len(matches) == 1:
		run = matches[0]
	default:
		for _, m := range matches {
			if m.ID == id {
				run = m
			}
		}
		if run == nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
	}

	records, err := s.loadRecords(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Records = records
	return run, nil
}

func (s *Store) loadRecords(ctx context.Context, runID string) ([]models.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT test_name, raw_message, simplified_message, cluster_label,
		COALESCE(cause, ''), COALESCE(fix, '')
		FROM failures WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	records := []models.FailureRecord{}
	for rows.Next() {
		var rec models.FailureRecord
		if err := rows.Scan(&rec.TestName, &rec.RawMessage, &rec.SimplifiedMessage,
			&rec.ClusterLabel, &rec.Cause, &rec.Fix); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return records, nil
}

// Prune deletes all but the keep newest runs and returns how many were
// deleted. keep <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM failures WHERE run_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune failures: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return int(deleted), nil
}

// Clear deletes every run and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM failures`); err != nil {
		return 0, fmt.Errorf("clear failures: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear: %w", err)
	}
	return int(deleted), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
