package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
	"github.com/ericfisherdev/ghsync/internal/domain/port/driven"
)

// BackupService clones or updates repositories under a destination root
// with a bounded pool of workers. Workers pull target indexes from a shared
// atomic cursor, so a worker that finishes a slow job simply claims the next
// index instead of waiting on a partner.
type BackupService struct {
	runner driven.CommandRunner
	out    io.Writer
	logger *slog.Logger
}

// NewBackupService creates a new BackupService. Progress and per-job
// diagnostics are written to out; pass io.Discard to silence them.
func NewBackupService(runner driven.CommandRunner, out io.Writer) *BackupService {
	return &BackupService{
		runner: runner,
		out:    out,
		logger: slog.Default(),
	}
}

// Run backs up every repository and returns the aggregated summary. A failed
// target is recorded, never retried, and never stops the other workers; the
// caller inspects the summary to decide the process exit status. The
// returned error covers only setup failures before any job has started.
func (s *BackupService) Run(ctx context.Context, repos []model.Repository, destRoot string, mirror bool, jobs int) (*model.RunSummary, error) {
	if jobs < 1 {
		jobs = 1
	}

	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create destination root: %w", err)
	}
	destRoot, err := filepath.Abs(destRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve destination root: %w", err)
	}

	mode := "regular"
	if mirror {
		mode = "mirror"
	}
	fmt.Fprintf(s.out, "\nBacking up to: %s (mode: %s, workers: %d)\n", destRoot, mode, jobs)
	s.logger.Info("backup run starting", "dest", destRoot, "mode", mode, "workers", jobs, "targets", len(repos))

	startedAt := time.Now()
	total := len(repos)

	agg := NewResultAggregator(total, func(result model.BackupResult) {
		fmt.Fprintf(s.out, "  [%d/%d] [%s] %s\n", result.Seq+1, total, result.Status.Icon(), result.FullName)
		if result.Err != "" {
			fmt.Fprintf(s.out, "           %s\n", result.Err)
		}
	})

	var cursor atomic.Int64
	var wg sync.WaitGroup

	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= total {
					return
				}
				agg.Record(s.backupOne(ctx, repos[idx], destRoot, mirror))
			}
		}()
	}
	wg.Wait()

	summary := agg.Summary()
	summary.DestRoot = destRoot
	summary.Mirror = mirror
	summary.StartedAt = startedAt
	summary.FinishedAt = time.Now()

	s.logger.Info("backup run finished",
		"cloned", summary.Cloned,
		"updated", summary.Updated,
		"failed", len(summary.Failed),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)

	return summary, nil
}

// backupOne processes a single target: an existing destination directory is
// refreshed, a missing one is cloned. The external command's success or
// failure alone decides the outcome.
func (s *BackupService) backupOne(ctx context.Context, repo model.Repository, destRoot string, mirror bool) model.BackupResult {
	owner, name := repo.Owner, repo.Name
	if owner == "" || name == "" {
		owner, name = splitFullName(repo.FullName)
	}
	dir := filepath.Join(destRoot, owner, name)

	var status model.BackupStatus
	var err error

	if _, statErr := os.Stat(dir); statErr == nil {
		status = model.BackupStatusUpdated
		if mirror {
			_, err = s.runner.Run(ctx, "git", "-C", dir, "remote", "update")
		} else {
			_, err = s.runner.Run(ctx, "git", "-C", dir, "fetch", "--all")
		}
	} else {
		status = model.BackupStatusCloned
		if mkErr := os.MkdirAll(filepath.Dir(dir), 0o755); mkErr != nil {
			err = mkErr
		} else {
			args := []string{"clone"}
			if mirror {
				args = append(args, "--mirror")
			}
			args = append(args, repo.SSHURL, dir)
			_, err = s.runner.Run(ctx, "git", args...)
		}
	}

	if err != nil {
		return model.BackupResult{
			FullName: repo.FullName,
			Status:   model.BackupStatusFailed,
			Err:      firstLine(err.Error()),
		}
	}

	return model.BackupResult{FullName: repo.FullName, Status: status}
}

// splitFullName splits "owner/name" into its components. A name without a
// separator keeps the whole identifier as the name.
func splitFullName(fullName string) (owner, name string) {
	if o, n, ok := strings.Cut(fullName, "/"); ok {
		return o, n
	}
	return "", fullName
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
