package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
	"github.com/ericfisherdev/ghsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// SaveRun persists a finished run and all its per-target results in a single
// transaction, returning the new run's ID.
func (r *RunRepo) SaveRun(ctx context.Context, summary *model.RunSummary, jobs int) (int64, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	const runQuery = `INSERT INTO runs (started_at, finished_at, dest_root, mirror, jobs, total, cloned, updated, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := tx.ExecContext(ctx, runQuery,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		summary.DestRoot,
		boolToInt(summary.Mirror),
		jobs,
		summary.Total,
		summary.Cloned,
		summary.Updated,
		len(summary.Failed),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	const resultQuery = `INSERT INTO run_results (run_id, seq, full_name, status, error) VALUES (?, ?, ?, ?, ?)`
	for _, result := range summary.Results {
		if _, err := tx.ExecContext(ctx, resultQuery, runID, result.Seq, result.FullName, string(result.Status), result.Err); err != nil {
			return 0, fmt.Errorf("insert result %s: %w", result.FullName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the most recent runs, newest first, at most limit.
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	const query = `SELECT id, started_at, finished_at, dest_root, mirror, jobs, total, cloned, updated, failed
		FROM runs ORDER BY id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var startedAt, finishedAt string
		var mirror int

		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.DestRoot, &mirror, &run.Jobs,
			&run.Total, &run.Cloned, &run.Updated, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Mirror = mirror != 0
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ResultsForRun returns the per-target results of a run in completion order.
// Returns driven.ErrRunNotFound if the run does not exist.
func (r *RunRepo) ResultsForRun(ctx context.Context, runID int64) ([]model.BackupResult, error) {
	var exists int
	err := r.db.Reader.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", runID, driven.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("check run %d: %w", runID, err)
	}

	const query = `SELECT seq, full_name, status, error FROM run_results WHERE run_id = ? ORDER BY seq`

	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list results for run %d: %w", runID, err)
	}
	defer rows.Close()

	var results []model.BackupResult
	for rows.Next() {
		var result model.BackupResult
		var status string

		if err := rows.Scan(&result.Seq, &result.FullName, &status, &result.Err); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result.Status = model.BackupStatus(status)

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
