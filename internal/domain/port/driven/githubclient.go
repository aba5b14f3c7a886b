package driven

import (
	"context"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
)

// GitHubClient defines the driven port for repository discovery against the
// GitHub API. AuthenticatedUser doubles as the authentication check: an
// invalid or missing token surfaces as an error from it.
type GitHubClient interface {
	// AuthenticatedUser returns the login of the token's user.
	AuthenticatedUser(ctx context.Context) (string, error)

	// ListOrganizations returns the logins of every org the authenticated
	// user belongs to.
	ListOrganizations(ctx context.Context) ([]string, error)

	// ListRepositories returns all repositories owned by the given owner
	// (user or org), paginated transparently.
	ListRepositories(ctx context.Context, owner string) ([]model.Repository, error)
}
