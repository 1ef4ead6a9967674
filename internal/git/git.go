// Package git runs the git CLI for the remediation commit step and the
// gitignore monitor.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotRepository is returned when a path is outside any git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Git implements Operations using the git CLI.
type Git struct {
	gitPath string
}

// NewGit locates git on PATH and checks that it runs.
func NewGit(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}
	if err := exec.CommandContext(ctx, gitPath, "version").Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}
	return &Git{gitPath: gitPath}, nil
}

// run executes git in repoPath and returns stdout. Failures carry git's
// stderr; a missing repository maps to ErrNotRepository.
func (g *Git) run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, append([]string{"-C", repoPath}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("git %s in %s: %w", args[0], repoPath, ctxErr)
	}
	msg := strings.TrimSpace(stderr.String())
	if strings.Contains(msg, "not a git repository") {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, repoPath)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(out))
	}
	return nil, fmt.Errorf("git %s failed in %s: %w (output: %s)", args[0], repoPath, err, msg)
}

// Changes parses `git status --porcelain -z`. Untracked directories are
// expanded so every new file is reported on its own.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) Changes(ctx context.Context, repoPath string, paths ...string) ([]Change, error) {
	args := []string{"status", "--porcelain", "-z", "--untracked-files=all"}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	out, err := g.run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out)
}

// parsePorcelain decodes NUL-separated porcelain v1 records: "XY path", with
// the original path following as its own record for renames and copies.
func parsePorcelain(out []byte) ([]Change, error) {
	changes := []Change{}
	records := strings.Split(string(out), "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if rec == "" {
			continue
		}
		if len(rec) < 4 || rec[2] != ' ' {
			return nil, fmt.Errorf("malformed git status record %q", rec)
		}
		c := Change{Index: rec[0], WorkTree: rec[1], Path: rec[3:]}
		if c.Index == 'R' || c.Index == 'C' {
			if i+1 >= len(records) || records[i+1] == "" {
				return nil, fmt.Errorf("rename record %q lacks its source path", rec)
			}
			i++
			c.OrigPath = records[i]
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// CommitChanges stages the requested paths and commits them.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) CommitChanges(ctx context.Context, repoPath string, opts CommitOptions) (string, error) {
	if opts.Message == "" {
		return "", fmt.Errorf("commit message is required")
	}

	// "add -A -- <paths>" also stages deletions.
	switch {
	case opts.AddAll:
		if _, err := g.run(ctx, repoPath, "add", "-A"); err != nil {
			return "", err
		}
	case len(opts.Paths) > 0:
		if _, err := g.run(ctx, repoPath, append([]string{"add", "-A", "--"}, opts.Paths...)...); err != nil {
			return "", err
		}
	}

	args := []string{"commit", "-m", opts.Message}
	if opts.Author != "" {
		args = append(args, "--author", opts.Author)
	}
	if len(opts.Paths) > 0 && !opts.AddAll {
		// Leave anything else the user staged out of the fix commit.
		args = append(append(args, "--"), opts.Paths...)
	}
	if _, err := g.run(ctx, repoPath, args...); err != nil {
		return "", err
	}

	out, err := g.run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get commit hash: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListTrackedFiles returns the files git tracks in the repository, as
// slash-separated paths relative to repoPath.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	out, err := g.run(ctx, repoPath, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, name := range strings.Split(string(out), "\x00") {
		if name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}
