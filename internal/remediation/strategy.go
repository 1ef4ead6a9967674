// Package remediation applies the fixes attached to remediation tasks.
//
// Every fix kind is a Strategy. Planning checks the kind's preconditions and
// computes the Mutation without touching the project; applying performs it.
// The split lets dry-run mode execute exactly the checks a real run would.
package remediation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Mutation is a planned change to the target project.
type Mutation struct {
	Kind    types.FixKind
	Path    string // absolute path inside the project root
	RelPath string // Path relative to the project root

	// Content is the full desired file content for write-style fixes.
	// It is what gets structurally validated.
	Content []byte
	Mode    os.FileMode

	Remove bool

	Command []string
	Dir     string
}

// Env is what a strategy may use while planning and applying.
type Env struct {
	Root           string
	CommandTimeout time.Duration
	Limiter        *rate.Limiter
}

// Strategy implements one fix kind.
type Strategy interface {
	Kind() types.FixKind

	// Plan checks preconditions and returns the mutation to perform.
	// It must not modify the project.
	Plan(ctx context.Context, env Env, task *types.RemediationTask) (*Mutation, error)

	// Apply performs a mutation produced by Plan.
	Apply(ctx context.Context, env Env, m *Mutation) error
}

// Registry maps fix kinds to strategies.
type Registry map[types.FixKind]Strategy

// DefaultRegistry returns a registry with every built-in strategy.
func DefaultRegistry() Registry {
	r := Registry{}
	for _, s := range []Strategy{
		createStrategy{},
		patchStrategy{},
		rewriteStrategy{},
		commandStrategy{},
		configStrategy{},
		deleteStrategy{},
	} {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the strategy for its kind.
func (r Registry) Register(s Strategy) {
	r[s.Kind()] = s
}

// ResolvePath joins a task's target path onto the project root and rejects
// anything that would land outside it.
func ResolvePath(root, target string) (abs, rel string, err error) {
	if strings.TrimSpace(target) == "" {
		return "", "", fmt.Errorf("target path is empty")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve project root: %w", err)
	}

	joined := target
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(rootAbs, joined)
	}
	joined = filepath.Clean(joined)

	rel, err = filepath.Rel(rootAbs, joined)
	if err != nil {
		return "", "", fmt.Errorf("target %s is not under %s: %w", target, rootAbs, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("target %s escapes project root", target)
	}
	return joined, rel, nil
}

func exists(path string) (os.FileInfo, bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info, true, nil
	}
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	return nil, false, err
}

// writeFileAtomic writes via a temp file and rename so a crash never leaves
// a half-written target.
func writeFileAtomic(path string, content []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
