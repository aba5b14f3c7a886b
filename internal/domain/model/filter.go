package model

import "fmt"

// Scope selects which owners contribute repositories to a run.
type Scope string

const (
	ScopeAll          Scope = "all"      // authenticated user plus all orgs
	ScopeOrgsOnly     Scope = "orgs"     // org repositories only
	ScopePersonalOnly Scope = "personal" // the authenticated user only
)

// FilterSpec bundles the repository selection rules for one run. It is
// built once from CLI flags and never mutated afterwards.
type FilterSpec struct {
	// Owners is an optional explicit org allow-list. Each entry must match
	// a known org (case-insensitive); unknown names are a configuration error.
	Owners []string

	Scope Scope

	NoForks      bool
	ForksOnly    bool
	NoArchived   bool
	ArchivedOnly bool

	// Visibility, when non-empty, keeps only repositories whose visibility
	// equals it (case-insensitive).
	Visibility string

	// Match keeps a repository only if its bare name matches at least one
	// pattern; Exclude removes it if its bare name matches any pattern.
	Match   []string
	Exclude []string
}

// Validate rejects conflicting filter combinations before any network or
// filesystem activity happens.
func (f *FilterSpec) Validate() error {
	if f.NoForks && f.ForksOnly {
		return fmt.Errorf("no-forks and forks-only are mutually exclusive")
	}
	if f.NoArchived && f.ArchivedOnly {
		return fmt.Errorf("no-archived and archived-only are mutually exclusive")
	}
	if f.Scope == ScopePersonalOnly && len(f.Owners) > 0 {
		return fmt.Errorf("personal-only cannot be combined with explicit orgs")
	}
	switch f.Visibility {
	case "", "public", "private", "internal":
	default:
		return fmt.Errorf("visibility must be public, private or internal, got %q", f.Visibility)
	}
	return nil
}
