package remediation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

const defaultFileMode os.FileMode = 0644

func payloadContent(task *types.RemediationTask) ([]byte, error) {
	if task.Payload == nil {
		return nil, fmt.Errorf("%s fix requires payload content", task.FixKind)
	}
	return []byte(task.Payload.Content), nil
}

// applyWrite is shared by every strategy that ends in writing Content.
func applyWrite(_ context.Context, _ Env, m *Mutation) error {
	return writeFileAtomic(m.Path, m.Content, m.Mode)
}

// createStrategy writes a new file. The target must not exist.
type createStrategy struct{}

func (createStrategy) Kind() types.FixKind { return types.FixCreate }

func (createStrategy) Plan(_ context.Context, env Env, task *types.RemediationTask) (*Mutation, error) {
	abs, rel, err := ResolvePath(env.Root, task.TargetPath)
	if err != nil {
		return nil, err
	}
	if _, ok, err := exists(abs); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("target %s already exists", rel)
	}
	content, err := payloadContent(task)
	if err != nil {
		return nil, err
	}
	return &Mutation{Kind: types.FixCreate, Path: abs, RelPath: rel, Content: content, Mode: defaultFileMode}, nil
}

func (createStrategy) Apply(ctx context.Context, env Env, m *Mutation) error {
	return applyWrite(ctx, env, m)
}

// patchStrategy replaces the content of an existing file.
type patchStrategy struct{}

func (patchStrategy) Kind() types.FixKind { return types.FixPatch }

func (patchStrategy) Plan(_ context.Context, env Env, task *types.RemediationTask) (*Mutation, error) {
	abs, rel, err := ResolvePath(env.Root, task.TargetPath)
	if err != nil {
		return nil, err
	}
	info, ok, err := exists(abs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("target %s does not exist", rel)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("target %s is a directory", rel)
	}
	content, err := payloadContent(task)
	if err != nil {
		return nil, err
	}
	return &Mutation{Kind: types.FixPatch, Path: abs, RelPath: rel, Content: content, Mode: info.Mode().Perm()}, nil
}

func (patchStrategy) Apply(ctx context.Context, env Env, m *Mutation) error {
	return applyWrite(ctx, env, m)
}

// rewriteStrategy replaces a file's content, creating it when missing.
type rewriteStrategy struct{}

func (rewriteStrategy) Kind() types.FixKind { return types.FixRewrite }

func (rewriteStrategy) Plan(_ context.Context, env Env, task *types.RemediationTask) (*Mutation, error) {
	abs, rel, err := ResolvePath(env.Root, task.TargetPath)
	if err != nil {
		return nil, err
	}
	mode := defaultFileMode
	info, ok, err := exists(abs)
	if err != nil {
		return nil, err
	}
	if ok {
		if info.IsDir() {
			return nil, fmt.Errorf("target %s is a directory", rel)
		}
		mode = info.Mode().Perm()
	}
	content, err := payloadContent(task)
	if err != nil {
		return nil, err
	}
	return &Mutation{Kind: types.FixRewrite, Path: abs, RelPath: rel, Content: content, Mode: mode}, nil
}

func (rewriteStrategy) Apply(ctx context.Context, env Env, m *Mutation) error {
	return applyWrite(ctx, env, m)
}

// deleteStrategy removes an existing file or directory tree.
type deleteStrategy struct{}

func (deleteStrategy) Kind() types.FixKind { return types.FixDelete }

func (deleteStrategy) Plan(_ context.Context, env Env, task *types.RemediationTask) (*Mutation, error) {
	abs, rel, err := ResolvePath(env.Root, task.TargetPath)
	if err != nil {
		return nil, err
	}
	if _, ok, err := exists(abs); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("target %s does not exist", rel)
	}
	return &Mutation{Kind: types.FixDelete, Path: abs, RelPath: rel, Remove: true}, nil
}

func (deleteStrategy) Apply(_ context.Context, _ Env, m *Mutation) error {
	if err := os.RemoveAll(m.Path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", m.RelPath, err)
	}
	return nil
}

// commandStrategy runs an external program without a shell. The working
// directory is the target path when it is a directory, its parent otherwise,
// and the project root when no target is given.
type commandStrategy struct{}

func (commandStrategy) Kind() types.FixKind { return types.FixCommand }

func (commandStrategy) Plan(_ context.Context, env Env, task *types.RemediationTask) (*Mutation, error) {
	if task.Payload == nil || len(task.Payload.Command) == 0 || strings.TrimSpace(task.Payload.Command[0]) == "" {
		return nil, fmt.Errorf("command fix requires a command")
	}
	if _, err := exec.LookPath(task.Payload.Command[0]); err != nil {
		return nil, fmt.Errorf("command %q not found: %w", task.Payload.Command[0], err)
	}

	m := &Mutation{Kind: types.FixCommand, Command: append([]string(nil), task.Payload.Command...)}
	if task.TargetPath == "" {
		root, err := filepath.Abs(env.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project root: %w", err)
		}
		m.Dir = root
		return m, nil
	}

	abs, rel, err := ResolvePath(env.Root, task.TargetPath)
	if err != nil {
		return nil, err
	}
	m.Path, m.RelPath = abs, rel
	info, ok, err := exists(abs)
	if err != nil {
		return nil, err
	}
	if ok && info.IsDir() {
		m.Dir = abs
	} else {
		m.Dir = filepath.Dir(abs)
	}
	if _, ok, _ := exists(m.Dir); !ok {
		return nil, fmt.Errorf("working directory %s does not exist", m.Dir)
	}
	return m, nil
}

func (commandStrategy) Apply(ctx context.Context, env Env, m *Mutation) error {
	if env.Limiter != nil {
		if err := env.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("command throttled: %w", err)
		}
	}
	if env.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, env.CommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, m.Command[0], m.Command[1:]...)
	cmd.Dir = m.Dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("command %q timed out after %v", strings.Join(m.Command, " "), env.CommandTimeout)
		}
		return fmt.Errorf("command %q failed: %w (output: %s)", strings.Join(m.Command, " "), err, strings.TrimSpace(output.String()))
	}
	return nil
}

// configStrategy sets a dotted key in a JSON or YAML document.
type configStrategy struct{}

func (configStrategy) Kind() types.FixKind { return types.FixConfig }

func (configStrategy) Plan(_ context.Context, env Env, task *types.RemediationTask) (*Mutation, error) {
	abs, rel, err := ResolvePath(env.Root, task.TargetPath)
	if err != nil {
		return nil, err
	}
	if task.Payload == nil || strings.TrimSpace(task.Payload.Key) == "" {
		return nil, fmt.Errorf("config fix requires a key")
	}
	info, ok, err := exists(abs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("target %s does not exist", rel)
	}
	original, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	var updated []byte
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".json":
		updated, err = setJSONKey(original, task.Payload.Key, task.Payload.Value)
	case ".yaml", ".yml":
		updated, err = setYAMLKey(original, task.Payload.Key, task.Payload.Value)
	default:
		return nil, fmt.Errorf("target %s is not a JSON or YAML document", rel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set %s in %s: %w", task.Payload.Key, rel, err)
	}
	return &Mutation{Kind: types.FixConfig, Path: abs, RelPath: rel, Content: updated, Mode: info.Mode().Perm()}, nil
}

func (configStrategy) Apply(ctx context.Context, env Env, m *Mutation) error {
	return applyWrite(ctx, env, m)
}
