package driven

import "context"

// CommandRunner defines the driven port for executing external commands.
// Implementations run each command as an isolated subprocess with no shared
// state, so concurrent Run calls are safe.
type CommandRunner interface {
	// Run executes name with args and returns captured standard output.
	// On nonzero exit or spawn failure the returned error message carries
	// the captured standard error text.
	Run(ctx context.Context, name string, args ...string) (string, error)
}
