package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
)

// ErrRunNotFound indicates the requested run does not exist in the history store.
var ErrRunNotFound = errors.New("run not found")

// RunStore defines the driven port for backup run history persistence.
type RunStore interface {
	// SaveRun persists a finished run and its per-target results, returning
	// the new run's ID.
	SaveRun(ctx context.Context, summary *model.RunSummary, jobs int) (int64, error)

	// ListRuns returns the most recent runs, newest first, at most limit.
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// ResultsForRun returns the per-target results of a run in completion
	// order. Returns ErrRunNotFound if the run does not exist.
	ResultsForRun(ctx context.Context, runID int64) ([]model.BackupResult, error)
}
