package application

import (
	"sync"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
)

// ResultAggregator accumulates per-job outcomes under a single lock. Sequence
// numbers are assigned in completion order and are strictly increasing with
// no gaps; every recorded outcome is counted exactly once.
type ResultAggregator struct {
	mu       sync.Mutex
	results  []model.BackupResult
	cloned   int
	updated  int
	failed   []model.BackupResult
	onRecord func(model.BackupResult)
}

// NewResultAggregator creates an aggregator sized for the expected number of
// outcomes. onRecord, when non-nil, is invoked for each outcome while the
// lock is still held, so progress reporting stays in sequence order and
// lines from concurrent workers never interleave.
func NewResultAggregator(expected int, onRecord func(model.BackupResult)) *ResultAggregator {
	return &ResultAggregator{
		results:  make([]model.BackupResult, 0, expected),
		onRecord: onRecord,
	}
}

// Record stores one outcome and returns its zero-based completion sequence
// number.
func (a *ResultAggregator) Record(result model.BackupResult) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	result.Seq = len(a.results)
	a.results = append(a.results, result)

	switch result.Status {
	case model.BackupStatusCloned:
		a.cloned++
	case model.BackupStatusUpdated:
		a.updated++
	case model.BackupStatusFailed:
		a.failed = append(a.failed, result)
	}

	if a.onRecord != nil {
		a.onRecord(result)
	}

	return result.Seq
}

// Summary returns the aggregated run summary. It is only meaningful once
// all expected outcomes have been recorded; the caller knows the expected
// count, the aggregator does not.
func (a *ResultAggregator) Summary() *model.RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]model.BackupResult, len(a.results))
	copy(results, a.results)

	failed := make([]model.BackupResult, len(a.failed))
	copy(failed, a.failed)

	return &model.RunSummary{
		Total:   len(results),
		Cloned:  a.cloned,
		Updated: a.updated,
		Results: results,
		Failed:  failed,
	}
}
