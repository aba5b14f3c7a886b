package application_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ghsync/internal/application"
	"github.com/ericfisherdev/ghsync/internal/domain/model"
)

// --- Mock implementations ---

type mockGitHubClient struct {
	user    string
	orgs    []string
	repos   map[string][]model.Repository
	listErr error
	fetched []string
}

func (m *mockGitHubClient) AuthenticatedUser(_ context.Context) (string, error) {
	return m.user, nil
}

func (m *mockGitHubClient) ListOrganizations(_ context.Context) ([]string, error) {
	return m.orgs, nil
}

func (m *mockGitHubClient) ListRepositories(_ context.Context, owner string) ([]model.Repository, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.fetched = append(m.fetched, owner)
	return m.repos[owner], nil
}

func repo(fullName string, opts ...func(*model.Repository)) model.Repository {
	owner, name := "", fullName
	for i := range fullName {
		if fullName[i] == '/' {
			owner, name = fullName[:i], fullName[i+1:]
			break
		}
	}
	r := model.Repository{
		FullName:   fullName,
		Owner:      owner,
		Name:       name,
		SSHURL:     "git@github.com:" + fullName + ".git",
		Visibility: "public",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func asFork(r *model.Repository)     { r.IsFork = true }
func asArchived(r *model.Repository) { r.IsArchived = true }
func asPrivate(r *model.Repository)  { r.Visibility = "private" }

func fullNames(repos []model.Repository) []string {
	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.FullName
	}
	return names
}

// --- Tests ---

func TestDiscover_DefaultScopeIsUserPlusOrgs(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/dotfiles")},
			"acme":  {repo("acme/widgets")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	repos, err := svc.Discover(context.Background(), model.FilterSpec{Scope: model.ScopeAll}, "alice", []string{"acme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "acme"}, gh.fetched)
	assert.Equal(t, []string{"acme/widgets", "alice/dotfiles"}, fullNames(repos))
}

func TestDiscover_PersonalOnly(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/dotfiles")},
			"acme":  {repo("acme/widgets")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	repos, err := svc.Discover(context.Background(), model.FilterSpec{Scope: model.ScopePersonalOnly}, "alice", []string{"acme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, gh.fetched)
	assert.Equal(t, []string{"alice/dotfiles"}, fullNames(repos))
}

func TestDiscover_OrgsOnly(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/dotfiles")},
			"acme":  {repo("acme/widgets")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	repos, err := svc.Discover(context.Background(), model.FilterSpec{Scope: model.ScopeOrgsOnly}, "alice", []string{"acme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"acme"}, gh.fetched)
	assert.Equal(t, []string{"acme/widgets"}, fullNames(repos))
}

func TestDiscover_ExplicitOwners_CaseInsensitive(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"Acme": {repo("Acme/widgets")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopeAll, Owners: []string{"ACME"}}
	repos, err := svc.Discover(context.Background(), spec, "alice", []string{"Acme", "other"})
	require.NoError(t, err)

	// The canonical org spelling is used for the fetch.
	assert.Equal(t, []string{"Acme"}, gh.fetched)
	assert.Equal(t, []string{"Acme/widgets"}, fullNames(repos))
}

func TestDiscover_UnknownOwnerIsHardError(t *testing.T) {
	gh := &mockGitHubClient{}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopeAll, Owners: []string{"nosuchorg"}}
	_, err := svc.Discover(context.Background(), spec, "alice", []string{"acme", "tdacorp"})
	require.Error(t, err)

	// The error names the offending org and the full known set.
	assert.Contains(t, err.Error(), "nosuchorg")
	assert.Contains(t, err.Error(), "acme")
	assert.Contains(t, err.Error(), "tdacorp")
	assert.Empty(t, gh.fetched, "no discovery calls after a config error")
}

func TestDiscover_DedupeFirstSeenWins(t *testing.T) {
	// Both owners report the same full name with differing secondary fields;
	// the record from the first-fetched owner survives.
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("acme/shared", asPrivate)},
			"acme":  {repo("acme/shared"), repo("acme/widgets")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	repos, err := svc.Discover(context.Background(), model.FilterSpec{Scope: model.ScopeAll}, "alice", []string{"acme"})
	require.NoError(t, err)

	require.Equal(t, []string{"acme/shared", "acme/widgets"}, fullNames(repos))
	assert.Equal(t, "private", repos[0].Visibility, "first-seen record wins")
}

func TestDiscover_NoForksRemovesAllForks(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {
				repo("alice/own"),
				repo("alice/forked", asFork),
				repo("alice/another-fork", asFork),
			},
		},
	}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopePersonalOnly, NoForks: true}
	repos, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)

	for _, r := range repos {
		assert.False(t, r.IsFork)
	}
	assert.Equal(t, []string{"alice/own"}, fullNames(repos))
}

func TestDiscover_ForksOnly(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/own"), repo("alice/forked", asFork)},
		},
	}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopePersonalOnly, ForksOnly: true}
	repos, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice/forked"}, fullNames(repos))
}

func TestDiscover_ArchiveStages(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/live"), repo("alice/old", asArchived)},
		},
	}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopePersonalOnly, NoArchived: true}
	repos, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/live"}, fullNames(repos))

	spec = model.FilterSpec{Scope: model.ScopePersonalOnly, ArchivedOnly: true}
	repos, err = svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/old"}, fullNames(repos))
}

func TestDiscover_VisibilityCaseInsensitive(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/pub"), repo("alice/sec", asPrivate)},
		},
	}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopePersonalOnly, Visibility: "private"}
	repos, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice/sec"}, fullNames(repos))
}

func TestDiscover_IncludeGlobMatchesBareName(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/tda-core"), repo("alice/other")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopePersonalOnly, Match: []string{"tda-*"}}
	repos, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice/tda-core"}, fullNames(repos))
}

func TestDiscover_ExcludeTakesPrecedenceOverInclude(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/tda-core")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	// Both globs target the same name; the exclude stage runs later and wins.
	spec := model.FilterSpec{
		Scope:   model.ScopePersonalOnly,
		Match:   []string{"tda-*"},
		Exclude: []string{"tda-*"},
	}
	repos, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.NoError(t, err)

	assert.Empty(t, repos)
}

func TestDiscover_SortedCaseInsensitively(t *testing.T) {
	gh := &mockGitHubClient{
		repos: map[string][]model.Repository{
			"alice": {repo("alice/Zeta"), repo("alice/alpha"), repo("alice/Beta")},
		},
	}
	svc := application.NewDiscoveryService(gh)

	repos, err := svc.Discover(context.Background(), model.FilterSpec{Scope: model.ScopePersonalOnly}, "alice", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice/alpha", "alice/Beta", "alice/Zeta"}, fullNames(repos))
}

func TestDiscover_PropagatesDiscoveryError(t *testing.T) {
	gh := &mockGitHubClient{listErr: fmt.Errorf("api unreachable")}
	svc := application.NewDiscoveryService(gh)

	_, err := svc.Discover(context.Background(), model.FilterSpec{Scope: model.ScopePersonalOnly}, "alice", nil)
	assert.ErrorContains(t, err, "api unreachable")
}

func TestDiscover_ConflictingTogglesRejected(t *testing.T) {
	gh := &mockGitHubClient{}
	svc := application.NewDiscoveryService(gh)

	spec := model.FilterSpec{Scope: model.ScopeAll, NoForks: true, ForksOnly: true}
	_, err := svc.Discover(context.Background(), spec, "alice", nil)
	require.Error(t, err)
	assert.Empty(t, gh.fetched, "validation failures happen before any network activity")
}
