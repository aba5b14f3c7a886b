// Package execgit implements the CommandRunner port by spawning external
// processes, one per Run call, with no shared state between invocations.
package execgit

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ericfisherdev/ghsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommandRunner = (*Runner)(nil)

// Runner runs external commands and captures their output.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes name with args and returns trimmed standard output. On
// nonzero exit or spawn failure the error carries the trimmed standard
// error text so callers can surface the first diagnostic line.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
