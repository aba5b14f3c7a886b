package model

import "time"

// BackupStatus represents the outcome of a single backup job.
type BackupStatus string

const (
	BackupStatusCloned  BackupStatus = "cloned"
	BackupStatusUpdated BackupStatus = "updated"
	BackupStatusFailed  BackupStatus = "failed"
)

// Icon returns the single-character marker used in progress output.
func (s BackupStatus) Icon() string {
	switch s {
	case BackupStatusCloned:
		return "+"
	case BackupStatusUpdated:
		return "~"
	case BackupStatusFailed:
		return "!"
	default:
		return "?"
	}
}

// BackupResult is the outcome of one backup job. Exactly one result exists
// per target; Seq is the zero-based completion order assigned by the
// aggregator, not the queue position.
type BackupResult struct {
	FullName string
	Status   BackupStatus
	Err      string // first line of captured diagnostics; empty unless failed
	Seq      int
}

// RunSummary aggregates all results of a backup run. It grows as jobs
// complete and is read-only once the run has finished.
type RunSummary struct {
	DestRoot   string
	Mirror     bool
	Total      int
	Cloned     int
	Updated    int
	Results    []BackupResult // completion order
	Failed     []BackupResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether every target succeeded. A run with any failed target
// is an overall failure even when other targets were backed up.
func (s *RunSummary) OK() bool {
	return len(s.Failed) == 0
}
