// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/ghsync/internal/domain/model"
	"github.com/ericfisherdev/ghsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh    *gh.Client
	limit int // max repositories fetched per owner; 0 means unlimited

	mu    sync.Mutex
	login string // cached authenticated user login
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string, limit int) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client, limit: limit}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, limit int) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, limit: limit}, nil
}

// AuthenticatedUser returns the login of the token's user. A missing or
// revoked token surfaces here as an error, so this call doubles as the
// authentication check before discovery begins. The login is cached after
// the first successful call.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.login
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("fetching authenticated user: %w", err)
	}

	logRateLimit(resp, "/user", 0, 1)

	login := user.GetLogin()
	if login == "" {
		return "", fmt.Errorf("authenticated user has no login")
	}

	c.mu.Lock()
	c.login = login
	c.mu.Unlock()

	return login, nil
}

// ListOrganizations returns the logins of every org the authenticated user
// belongs to. It handles pagination automatically.
func (c *Client) ListOrganizations(ctx context.Context) ([]string, error) {
	opts := &gh.ListOptions{PerPage: 100}

	orgs := []string{}
	for {
		page, resp, err := c.gh.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, fmt.Errorf("listing organizations (page %d): %w", opts.Page, err)
		}

		logRateLimit(resp, "/user/orgs", opts.Page, len(page))

		for _, org := range page {
			if login := org.GetLogin(); login != "" {
				orgs = append(orgs, login)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return orgs, nil
}

// ListRepositories returns all repositories owned by the given owner. The
// authenticated user's own repositories need a different endpoint than org
// repositories, so the caller's resolved username is compared against owner
// case-insensitively.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]model.Repository, error) {
	user, err := c.AuthenticatedUser(ctx)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(owner, user) {
		return c.listUserRepositories(ctx, owner)
	}
	return c.listOrgRepositories(ctx, owner)
}

func (c *Client) listUserRepositories(ctx context.Context, owner string) ([]model.Repository, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Affiliation: "owner",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	repos := []model.Repository{}
	for {
		page, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing repositories for %s (page %d): %w", owner, opts.Page, err)
		}

		logRateLimit(resp, "/user/repos", opts.Page, len(page))

		for _, r := range page {
			repos = append(repos, mapRepository(r))
			if c.limit > 0 && len(repos) >= c.limit {
				return repos[:c.limit], nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

func (c *Client) listOrgRepositories(ctx context.Context, owner string) ([]model.Repository, error) {
	opts := &gh.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	repos := []model.Repository{}
	for {
		page, resp, err := c.gh.Repositories.ListByOrg(ctx, owner, opts)
		if err != nil {
			return nil, fmt.Errorf("listing repositories for org %s (page %d): %w", owner, opts.Page, err)
		}

		logRateLimit(resp, "/orgs/"+owner+"/repos", opts.Page, len(page))

		for _, r := range page {
			repos = append(repos, mapRepository(r))
			if c.limit > 0 && len(repos) >= c.limit {
				return repos[:c.limit], nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// mapRepository converts a go-github repository into the domain model.
func mapRepository(r *gh.Repository) model.Repository {
	return model.Repository{
		FullName:   r.GetFullName(),
		Owner:      r.GetOwner().GetLogin(),
		Name:       r.GetName(),
		SSHURL:     r.GetSSHURL(),
		IsFork:     r.GetFork(),
		IsArchived: r.GetArchived(),
		Visibility: strings.ToLower(r.GetVisibility()),
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)
}
