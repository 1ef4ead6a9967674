package remediation

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fixTask(kind types.FixKind, target string, payload *types.FixPayload) *types.RemediationTask {
	return &types.RemediationTask{
		ID: "TASK-P2-001", Title: "t", Priority: types.P2, Effort: types.EffortS,
		Status: types.TaskInProgress, FixKind: kind, TargetPath: target, Payload: payload,
	}
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()

	abs, rel, err := ResolvePath(root, "pkg/a.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("pkg", "a.go"), rel)
	assert.Equal(t, filepath.Join(root, "pkg", "a.go"), abs)

	for _, bad := range []string{"", "../outside.txt", "pkg/../../x", ".", "/etc/passwd"} {
		_, _, err := ResolvePath(root, bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestCreateStrategy(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	env := Env{Root: root}
	s := createStrategy{}

	m, err := s.Plan(ctx, env, fixTask(types.FixCreate, "docs/README.md", &types.FixPayload{Content: "# hi\n"}))
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(root, "docs/README.md"))
	assert.True(t, os.IsNotExist(statErr), "Plan must not touch the project")

	require.NoError(t, s.Apply(ctx, env, m))
	got, err := os.ReadFile(filepath.Join(root, "docs/README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(got))

	_, err = s.Plan(ctx, env, fixTask(types.FixCreate, "docs/README.md", &types.FixPayload{Content: "again"}))
	assert.ErrorContains(t, err, "already exists")

	_, err = s.Plan(ctx, env, fixTask(types.FixCreate, "new.txt", nil))
	assert.ErrorContains(t, err, "payload")
}

func TestPatchAndRewriteStrategies(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	env := Env{Root: root}
	writeFile(t, root, "a.txt", "old")

	m, err := patchStrategy{}.Plan(ctx, env, fixTask(types.FixPatch, "a.txt", &types.FixPayload{Content: "new"}))
	require.NoError(t, err)
	require.NoError(t, patchStrategy{}.Apply(ctx, env, m))
	got, _ := os.ReadFile(filepath.Join(root, "a.txt"))
	assert.Equal(t, "new", string(got))

	_, err = patchStrategy{}.Plan(ctx, env, fixTask(types.FixPatch, "missing.txt", &types.FixPayload{Content: "x"}))
	assert.ErrorContains(t, err, "does not exist")

	m, err = rewriteStrategy{}.Plan(ctx, env, fixTask(types.FixRewrite, "sub/missing.txt", &types.FixPayload{Content: "made"}))
	require.NoError(t, err, "rewrite may create a missing target")
	require.NoError(t, rewriteStrategy{}.Apply(ctx, env, m))
	got, _ = os.ReadFile(filepath.Join(root, "sub/missing.txt"))
	assert.Equal(t, "made", string(got))
}

func TestDeleteStrategy(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	env := Env{Root: root}
	path := writeFile(t, root, "tmp/junk.log", "x")

	m, err := deleteStrategy{}.Plan(ctx, env, fixTask(types.FixDelete, "tmp/junk.log", nil))
	require.NoError(t, err)
	assert.Nil(t, m.Content)
	require.NoError(t, deleteStrategy{}.Apply(ctx, env, m))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = deleteStrategy{}.Plan(ctx, env, fixTask(types.FixDelete, "tmp/junk.log", nil))
	assert.ErrorContains(t, err, "does not exist")
}

func TestCommandStrategy(t *testing.T) {
	if _, err := exec.LookPath("touch"); err != nil {
		t.Skip("touch not available")
	}
	ctx := context.Background()
	root := t.TempDir()
	env := Env{Root: root, CommandTimeout: 10 * time.Second}
	writeFile(t, root, "pkg/a.go", "package pkg\n")

	m, err := commandStrategy{}.Plan(ctx, env, fixTask(types.FixCommand, "pkg/a.go", &types.FixPayload{Command: []string{"touch", "marker"}}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pkg"), m.Dir, "working dir derives from the target path")
	require.NoError(t, commandStrategy{}.Apply(ctx, env, m))
	_, err = os.Stat(filepath.Join(root, "pkg", "marker"))
	assert.NoError(t, err)

	m, err = commandStrategy{}.Plan(ctx, env, fixTask(types.FixCommand, "", &types.FixPayload{Command: []string{"touch", "rootmarker"}}))
	require.NoError(t, err)
	require.NoError(t, commandStrategy{}.Apply(ctx, env, m))
	_, err = os.Stat(filepath.Join(root, "rootmarker"))
	assert.NoError(t, err)

	_, err = commandStrategy{}.Plan(ctx, env, fixTask(types.FixCommand, "", &types.FixPayload{}))
	assert.ErrorContains(t, err, "requires a command")

	_, err = commandStrategy{}.Plan(ctx, env, fixTask(types.FixCommand, "", &types.FixPayload{Command: []string{"definitely-not-a-real-binary-xyz"}}))
	assert.ErrorContains(t, err, "not found")
}

func TestCommandStrategyTimeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	ctx := context.Background()
	env := Env{Root: t.TempDir(), CommandTimeout: 50 * time.Millisecond}

	m, err := commandStrategy{}.Plan(ctx, env, fixTask(types.FixCommand, "", &types.FixPayload{Command: []string{"sleep", "5"}}))
	require.NoError(t, err)
	err = commandStrategy{}.Apply(ctx, env, m)
	assert.ErrorContains(t, err, "timed out")
}

func TestConfigStrategyJSON(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	env := Env{Root: root}
	writeFile(t, root, "package.json", `{"name": "app", "scripts": {"test": "jest"}, "version": 3}`)

	m, err := configStrategy{}.Plan(ctx, env, fixTask(types.FixConfig, "package.json", &types.FixPayload{Key: "scripts.lint", Value: "eslint ."}))
	require.NoError(t, err)
	require.NoError(t, configStrategy{}.Apply(ctx, env, m))

	got, _ := os.ReadFile(filepath.Join(root, "package.json"))
	assert.JSONEq(t, `{"name": "app", "scripts": {"test": "jest", "lint": "eslint ."}, "version": 3}`, string(got))

	_, err = configStrategy{}.Plan(ctx, env, fixTask(types.FixConfig, "package.json", &types.FixPayload{Key: "name.first", Value: 1}))
	assert.ErrorContains(t, err, "not an object")
}

func TestConfigStrategyYAML(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	env := Env{Root: root}
	writeFile(t, root, "conf/app.yaml", "# settings\nserver:\n  port: 80\nname: app\n")

	m, err := configStrategy{}.Plan(ctx, env, fixTask(types.FixConfig, "conf/app.yaml", &types.FixPayload{Key: "server.port", Value: 8080}))
	require.NoError(t, err)
	require.NoError(t, configStrategy{}.Apply(ctx, env, m))

	got, _ := os.ReadFile(filepath.Join(root, "conf/app.yaml"))
	text := string(got)
	assert.Contains(t, text, "# settings")
	assert.Contains(t, text, "port: 8080")
	assert.Less(t, strings.Index(text, "server:"), strings.Index(text, "name: app"), "key order is preserved")

	m, err = configStrategy{}.Plan(ctx, env, fixTask(types.FixConfig, "conf/app.yaml", &types.FixPayload{Key: "logging.level", Value: "info"}))
	require.NoError(t, err)
	assert.Contains(t, string(m.Content), "logging:\n  level: info")

	writeFile(t, root, "conf/app.toml", "x = 1\n")
	_, err = configStrategy{}.Plan(ctx, env, fixTask(types.FixConfig, "conf/app.toml", &types.FixPayload{Key: "x", Value: 2}))
	assert.ErrorContains(t, err, "not a JSON or YAML document")
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		path    string
		content string
		wantErr bool
	}{
		{"main.go", "package main\n\nfunc main() {}\n", false},
		{"main.go", "package main\n\nfunc main() {\n", true},
		{"go.mod", "module example.com/x\n\ngo 1.22\n", false},
		{"go.mod", "module\nrequire (\n", true},
		{"a.json", `{"a": 1}`, false},
		{"a.json", `{"a": }`, true},
		{"a.yaml", "a: [1, 2]\n", false},
		{"a.yml", "a: [1, 2\n", true},
		{"notes.txt", "anything {", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidateContent(tt.path, []byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
