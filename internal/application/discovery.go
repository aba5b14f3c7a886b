// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
	"github.com/ericfisherdev/ghsync/internal/domain/port/driven"
	"github.com/ericfisherdev/ghsync/internal/glob"
)

// DiscoveryService resolves the owner set for a run, fetches every owner's
// repositories through the GitHubClient port, and applies the filter stages
// in a fixed order: scope, fork, archive, visibility, include-glob,
// exclude-glob.
type DiscoveryService struct {
	gh     driven.GitHubClient
	logger *slog.Logger
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(gh driven.GitHubClient) *DiscoveryService {
	return &DiscoveryService{
		gh:     gh,
		logger: slog.Default(),
	}
}

// Discover returns the deduplicated, filtered repository list for the run,
// sorted case-insensitively by full name. username is the authenticated
// user's login and orgs the user's org memberships, both resolved by the
// caller before filtering starts.
func (s *DiscoveryService) Discover(ctx context.Context, spec model.FilterSpec, username string, orgs []string) ([]model.Repository, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	owners, err := resolveOwners(spec, username, orgs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scanning owners", "owners", strings.Join(owners, ", "), "count", len(owners))

	repos, err := s.fetchAll(ctx, owners)
	if err != nil {
		return nil, err
	}

	repos = s.applyStages(spec, repos)

	sort.Slice(repos, func(i, j int) bool {
		return strings.ToLower(repos[i].FullName) < strings.ToLower(repos[j].FullName)
	})

	s.logger.Info("discovery complete", "repos", len(repos))

	return repos, nil
}

// resolveOwners computes the owner set for the run. An explicit allow-list
// is validated case-insensitively against the known orgs; unknown names are
// a hard error carrying both the offending names and the full known set.
func resolveOwners(spec model.FilterSpec, username string, orgs []string) ([]string, error) {
	if len(spec.Owners) > 0 {
		var invalid []string
		for _, want := range spec.Owners {
			found := false
			for _, org := range orgs {
				if strings.EqualFold(org, want) {
					found = true
					break
				}
			}
			if !found {
				invalid = append(invalid, want)
			}
		}
		if len(invalid) > 0 {
			return nil, fmt.Errorf("not a member of org(s): %s (your orgs: %s)",
				strings.Join(invalid, ", "), strings.Join(orgs, ", "))
		}

		// Keep the canonical org spelling and the known-org order.
		var owners []string
		for _, org := range orgs {
			for _, want := range spec.Owners {
				if strings.EqualFold(org, want) {
					owners = append(owners, org)
					break
				}
			}
		}
		return owners, nil
	}

	switch spec.Scope {
	case model.ScopeOrgsOnly:
		return orgs, nil
	case model.ScopePersonalOnly:
		return []string{username}, nil
	default:
		return append([]string{username}, orgs...), nil
	}
}

// fetchAll merges every owner's repositories into one collection keyed by
// full name. The first record seen for a full name wins; later duplicates
// are discarded, not merged.
func (s *DiscoveryService) fetchAll(ctx context.Context, owners []string) ([]model.Repository, error) {
	seen := make(map[string]bool)
	var repos []model.Repository

	for _, owner := range owners {
		list, err := s.gh.ListRepositories(ctx, owner)
		if err != nil {
			return nil, err
		}

		for _, repo := range list {
			if seen[repo.FullName] {
				continue
			}
			seen[repo.FullName] = true
			repos = append(repos, repo)
		}
	}

	return repos, nil
}

// applyStages runs the fork, archive, visibility and glob stages in order,
// logging each stage's exclusion count when nonzero.
func (s *DiscoveryService) applyStages(spec model.FilterSpec, repos []model.Repository) []model.Repository {
	if spec.NoForks {
		repos = s.retain(repos, "forks", func(r model.Repository) bool { return !r.IsFork })
	}
	if spec.ForksOnly {
		repos = s.retain(repos, "non-forks", func(r model.Repository) bool { return r.IsFork })
	}
	if spec.NoArchived {
		repos = s.retain(repos, "archived", func(r model.Repository) bool { return !r.IsArchived })
	}
	if spec.ArchivedOnly {
		repos = s.retain(repos, "non-archived", func(r model.Repository) bool { return r.IsArchived })
	}
	if spec.Visibility != "" {
		repos = s.retain(repos, "visibility", func(r model.Repository) bool {
			return strings.EqualFold(r.Visibility, spec.Visibility)
		})
	}
	if len(spec.Match) > 0 {
		repos = s.retain(repos, "unmatched", func(r model.Repository) bool {
			name := bareName(r.FullName)
			for _, pattern := range spec.Match {
				if glob.Match(pattern, name) {
					return true
				}
			}
			return false
		})
	}
	if len(spec.Exclude) > 0 {
		repos = s.retain(repos, "excluded", func(r model.Repository) bool {
			name := bareName(r.FullName)
			for _, pattern := range spec.Exclude {
				if glob.Match(pattern, name) {
					return false
				}
			}
			return true
		})
	}

	return repos
}

// retain keeps the repositories satisfying keep and logs how many the stage
// dropped when that count is nonzero.
func (s *DiscoveryService) retain(repos []model.Repository, stage string, keep func(model.Repository) bool) []model.Repository {
	kept := repos[:0]
	for _, repo := range repos {
		if keep(repo) {
			kept = append(kept, repo)
		}
	}

	if excluded := len(repos) - len(kept); excluded > 0 {
		s.logger.Info("filter stage excluded repos", "stage", stage, "excluded", excluded)
	}

	return kept
}

// bareName returns the identifier component after the owner separator.
func bareName(fullName string) string {
	if _, name, ok := strings.Cut(fullName, "/"); ok {
		return name
	}
	return ""
}
