package git

import (
	"context"
)

// Operations is the subset of git the pipeline relies on: finding what a fix
// changed, committing it, and listing tracked files for the gitignore monitor.
type Operations interface {
	// Changes returns the work tree changes, restricted to paths when any are given.
	Changes(ctx context.Context, repoPath string, paths ...string) ([]Change, error)

	// CommitChanges creates a commit and returns its hash.
	CommitChanges(ctx context.Context, repoPath string, opts CommitOptions) (string, error)

	// ListTrackedFiles returns the files under version control.
	ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error)
}

// Change is one entry of `git status --porcelain`. Index and WorkTree hold
// the X and Y status letters.
type Change struct {
	Path     string
	OrigPath string // set for renames and copies
	Index    byte
	WorkTree byte
}

// Untracked reports whether git does not know the path yet.
func (c Change) Untracked() bool { return c.Index == '?' && c.WorkTree == '?' }

// Deleted reports whether the path was removed from the index or work tree.
func (c Change) Deleted() bool { return c.Index == 'D' || c.WorkTree == 'D' }

// CommitOptions configures a git commit operation.
type CommitOptions struct {
	// Message is the commit message
	Message string

	// Author specifies the author (optional, uses git config if empty)
	Author string

	// AddAll stages all changes before committing (git add -A)
	AddAll bool

	// Paths stages only these paths (relative to the repo) before committing.
	// Ignored when AddAll is set.
	Paths []string
}
