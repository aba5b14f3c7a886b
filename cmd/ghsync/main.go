package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/ghsync/internal/adapter/driven/execgit"
	githubadapter "github.com/ericfisherdev/ghsync/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/ghsync/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/ghsync/internal/application"
	"github.com/ericfisherdev/ghsync/internal/config"
	"github.com/ericfisherdev/ghsync/internal/domain/model"
)

// CLI defines the ghsync flag surface.
type CLI struct {
	Org          []string `help:"Back up specific org(s) only (repeatable)." placeholder:"NAME" group:"Scope"`
	OrgsOnly     bool     `help:"Back up org repos only, skip personal." xor:"scope" group:"Scope"`
	PersonalOnly bool     `help:"Back up personal repos only, skip orgs." xor:"scope" group:"Scope"`
	ListOrgs     bool     `help:"List orgs and exit." group:"Scope"`

	NoForks      bool     `help:"Exclude forked repos." xor:"forks" group:"Filters"`
	ForksOnly    bool     `help:"Only forked repos." xor:"forks" group:"Filters"`
	NoArchived   bool     `help:"Exclude archived repos." xor:"archived" group:"Filters"`
	ArchivedOnly bool     `help:"Only archived repos." xor:"archived" group:"Filters"`
	Visibility   string   `help:"Filter by visibility (public, private or internal)." enum:",public,private,internal" default:"" group:"Filters"`
	Match        []string `help:"Only repos matching glob pattern (repeatable)." placeholder:"GLOB" group:"Filters"`
	Exclude      []string `help:"Exclude repos matching glob pattern (repeatable)." placeholder:"GLOB" group:"Filters"`

	Dest     string `help:"Destination directory." default:"." type:"path" group:"Clone Options"`
	NoMirror bool   `help:"Use regular clone instead of --mirror." group:"Clone Options"`
	Jobs     int    `help:"Parallel workers." default:"4" group:"Clone Options"`

	DryRun  bool `help:"List repos without cloning."`
	History int  `help:"Show the last N recorded backup runs and exit." placeholder:"N"`
}

// filterSpec translates the parsed flags into the domain filter configuration.
func (c *CLI) filterSpec() model.FilterSpec {
	scope := model.ScopeAll
	switch {
	case c.OrgsOnly:
		scope = model.ScopeOrgsOnly
	case c.PersonalOnly:
		scope = model.ScopePersonalOnly
	}

	return model.FilterSpec{
		Owners:       c.Org,
		Scope:        scope,
		NoForks:      c.NoForks,
		ForksOnly:    c.ForksOnly,
		NoArchived:   c.NoArchived,
		ArchivedOnly: c.ArchivedOnly,
		Visibility:   c.Visibility,
		Match:        c.Match,
		Exclude:      c.Exclude,
	}
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("ghsync"),
		kong.Description("Back up all GitHub repos (personal + org)."),
		kong.UsageOnError(),
	)

	if err := run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cli *CLI) error {
	// 1. Load configuration (fail fast on missing token or malformed values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Reject conflicting filter flags before any network activity.
	spec := cli.filterSpec()
	if err := spec.Validate(); err != nil {
		return err
	}

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// History mode reads only the local database.
	if cli.History > 0 {
		return printHistory(ctx, cfg, cli.History)
	}

	// 4. Create GitHub client and verify authentication.
	ghClient := githubadapter.NewClient(cfg.GitHubToken, cfg.RepoLimit)

	username, err := ghClient.AuthenticatedUser(ctx)
	if err != nil {
		return fmt.Errorf("github authentication failed: %w", err)
	}
	fmt.Printf("Authenticated as: %s\n", username)

	orgs, err := ghClient.ListOrganizations(ctx)
	if err != nil {
		return err
	}

	if cli.ListOrgs {
		return printOrgs(ctx, ghClient, orgs)
	}

	// 5. Discover and filter repositories.
	discovery := application.NewDiscoveryService(ghClient)
	repos, err := discovery.Discover(ctx, spec, username, orgs)
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		fmt.Println("No repos matched.")
		return nil
	}

	if cli.DryRun {
		printDryRun(repos)
		return nil
	}

	// 6. Run the backup.
	backup := application.NewBackupService(execgit.NewRunner(), os.Stdout)
	summary, err := backup.Run(ctx, repos, cli.Dest, !cli.NoMirror, cli.Jobs)
	if err != nil {
		return err
	}

	// 7. Persist run history; failure to record is never fatal.
	if err := saveHistory(ctx, cfg, summary, cli.Jobs); err != nil {
		slog.Error("could not record run history", "error", err)
	}

	printSummary(summary)

	if !summary.OK() {
		return fmt.Errorf("%d repo(s) failed", len(summary.Failed))
	}
	return nil
}

// printOrgs lists org memberships with their repo counts, sorted
// case-insensitively.
func printOrgs(ctx context.Context, ghClient *githubadapter.Client, orgs []string) error {
	sorted := append([]string(nil), orgs...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})

	fmt.Printf("\nOrgs (%d):\n", len(sorted))
	for _, org := range sorted {
		repos, err := ghClient.ListRepositories(ctx, org)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%d repos)\n", org, len(repos))
	}
	return nil
}

func printDryRun(repos []model.Repository) {
	fmt.Println("\n--- Dry run ---")
	total := len(repos)
	for i, r := range repos {
		var tags []string
		if r.IsFork {
			tags = append(tags, "fork")
		}
		if r.IsArchived {
			tags = append(tags, "archived")
		}
		if r.Visibility != "" {
			tags = append(tags, r.Visibility)
		}

		suffix := ""
		if len(tags) > 0 {
			suffix = fmt.Sprintf("  (%s)", strings.Join(tags, ", "))
		}
		fmt.Printf("  [%d/%d] %s%s\n", i+1, total, r.FullName, suffix)
	}
	fmt.Printf("\nTotal: %d repos\n", total)
}

func printSummary(summary *model.RunSummary) {
	fmt.Println("\n--- Summary ---")
	fmt.Printf("  Cloned:  %d\n", summary.Cloned)
	fmt.Printf("  Updated: %d\n", summary.Updated)
	fmt.Printf("  Failed:  %d\n", len(summary.Failed))

	if len(summary.Failed) > 0 {
		fmt.Println("\nFailed repos:")
		for _, result := range summary.Failed {
			fmt.Printf("  - %s\n", result.FullName)
		}
	}
}

// openHistory opens the run history database and applies migrations.
func openHistory(cfg *config.Config) (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func saveHistory(ctx context.Context, cfg *config.Config, summary *model.RunSummary, jobs int) error {
	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = sqliteadapter.NewRunRepo(db).SaveRun(ctx, summary, jobs)
	return err
}

func printHistory(ctx context.Context, cfg *config.Config, limit int) error {
	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := sqliteadapter.NewRunRepo(db).ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("Last %d run(s):\n", len(runs))
	for _, run := range runs {
		mode := "regular"
		if run.Mirror {
			mode = "mirror"
		}
		fmt.Printf("  #%d %s  %s (mode: %s, jobs: %d)  cloned=%d updated=%d failed=%d of %d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.DestRoot,
			mode,
			run.Jobs,
			run.Cloned,
			run.Updated,
			run.Failed,
			run.Total,
		)
	}
	return nil
}
