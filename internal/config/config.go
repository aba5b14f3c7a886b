// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken string
	DBPath      string
	RepoLimit   int
}

// Load reads configuration from environment variables and returns a validated
// Config. GHSYNC_GITHUB_TOKEN is required (GITHUB_TOKEN is accepted as a
// fallback for CI environments). Optional variables with defaults:
// GHSYNC_DB_PATH (ghsync.db), GHSYNC_REPO_LIMIT (0 = unlimited, max
// repositories fetched per owner).
func Load() (*Config, error) {
	token := os.Getenv("GHSYNC_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GHSYNC_GITHUB_TOKEN is required (or GITHUB_TOKEN)")
	}

	dbPath := "ghsync.db"
	if v, ok := os.LookupEnv("GHSYNC_DB_PATH"); ok {
		dbPath = v
	}

	repoLimit := 0
	if v, ok := os.LookupEnv("GHSYNC_REPO_LIMIT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("GHSYNC_REPO_LIMIT has invalid value %q: must be a non-negative integer", v)
		}
		repoLimit = parsed
	}

	return &Config{
		GitHubToken: token,
		DBPath:      dbPath,
		RepoLimit:   repoLimit,
	}, nil
}
