package remediation

import (
	"context"
	"fmt"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/git"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// GitCommitter commits the files a task touched. Command fixes have no
// known path set, so everything in the work tree is staged for them.
type GitCommitter struct {
	Git    git.Operations
	Root   string
	Author string
}

// Commit implements Committer. It returns an empty hash without committing
// when the fix left the work tree unchanged.
func (c *GitCommitter) Commit(ctx context.Context, task types.RemediationTask, paths []string) (string, error) {
	if c.Git == nil {
		return "", fmt.Errorf("git is not configured")
	}
	changes, err := c.Git.Changes(ctx, c.Root, paths...)
	if err != nil {
		return "", err
	}
	if len(changes) == 0 {
		return "", nil
	}

	opts := git.CommitOptions{
		Message: git.TaskCommitMessage(task.ID, task.Title, string(task.FixKind), task.TargetPath),
		Author:  c.Author,
		Paths:   paths,
		AddAll:  len(paths) == 0,
	}
	return c.Git.CommitChanges(ctx, c.Root, opts)
}
