package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

type fakeLister struct {
	files []string
	err   error
	root  string
}

func (f *fakeLister) ListTrackedFiles(_ context.Context, repoPath string) ([]string, error) {
	f.root = repoPath
	return f.files, f.err
}

func TestGitignoreDetector_Interface(t *testing.T) {
	detector, err := NewGitignoreDetector("/tmp", nil)
	require.NoError(t, err)

	assert.Equal(t, "gitignore", detector.Name())
	assert.Equal(t, "security", detector.Domain())
	assert.Contains(t, detector.Philosophy(), "Source control")
}

func TestGitignoreDetector_PatternGroups(t *testing.T) {
	detector, err := NewGitignoreDetector("/tmp", nil)
	require.NoError(t, err)

	names := make([]string, 0, len(detector.Groups))
	for _, g := range detector.Groups {
		names = append(names, g.Name)
		assert.NotEmpty(t, g.Patterns, g.Name)
		assert.True(t, g.Category.IsValid(), g.Name)
	}
	assert.Equal(t, []string{"secrets", "build artifacts", "dependencies", "editor files", "os files"}, names)
	assert.Equal(t, types.BucketCritical, detector.Groups[0].Bucket)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    string
		ok      bool
	}{
		{name: "exact basename", path: "foo/bar/.DS_Store", pattern: ".DS_Store", want: "foo/bar/.DS_Store", ok: true},
		{name: "exact root file", path: ".env", pattern: ".env", want: ".env", ok: true},
		{name: "wildcard object file", path: "build/main.o", pattern: "*.o", want: "build/main.o", ok: true},
		{name: "wildcard certificate", path: "certs/server.pem", pattern: "*.pem", want: "certs/server.pem", ok: true},
		{name: "wildcard env variant", path: ".env.local", pattern: ".env.*", want: ".env.local", ok: true},
		{name: "directory at root", path: "node_modules/express/index.js", pattern: "node_modules/", want: "node_modules", ok: true},
		{name: "nested directory", path: "web/node_modules/x/y.js", pattern: "node_modules/", want: "web/node_modules", ok: true},
		{name: "different directory", path: "src/components/Button.js", pattern: "node_modules/", ok: false},
		{name: "directory name as file prefix", path: "binary.go", pattern: "bin/", ok: false},
		{name: "go file is not object", path: "main.go", pattern: "*.o", ok: false},
		{name: "exact does not match longer name", path: ".env.example", pattern: ".env", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchPattern(tt.path, tt.pattern)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGitignoreDetector_FindViolations(t *testing.T) {
	detector, err := NewGitignoreDetector("/tmp", nil)
	require.NoError(t, err)

	violations := detector.findViolations([]string{
		"main.go",
		".env",
		"config.pem",
		"build/main.o",
		"node_modules/pkg/index.js",
		"node_modules/pkg/package.json",
		".vscode/settings.json",
		".DS_Store",
		"README.md",
		"docs/example.md",
	})

	groups := map[string]int{}
	paths := map[string]bool{}
	for _, v := range violations {
		groups[v.Group.Name]++
		paths[v.Path] = true
	}

	assert.Len(t, violations, 6)
	assert.Equal(t, map[string]int{
		"secrets":         2,
		"build artifacts": 1,
		"dependencies":    1,
		"editor files":    1,
		"os files":        1,
	}, groups)
	assert.True(t, paths["node_modules"], "files under a matched directory collapse to the directory")
	assert.False(t, paths["main.go"])
}

func TestGitignoreDetector_Analyze(t *testing.T) {
	lister := &fakeLister{files: []string{
		".env",
		"node_modules/a/b.js",
		"node_modules/c.js",
		"bin/app",
		"main.go",
	}}
	detector, err := NewGitignoreDetector("/tmp/project", lister)
	require.NoError(t, err)

	report, err := detector.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/project", lister.root)

	require.Len(t, report.Issues.Critical, 1)
	secret := report.Issues.Critical[0]
	assert.Equal(t, types.CategorySecurity, secret.Category)
	assert.Equal(t, ".env", secret.Location.Path)
	assert.Nil(t, secret.Fix, "leaked secrets need a human")
	assert.Contains(t, secret.Message, "rotate")

	require.Len(t, report.Issues.Medium, 2)
	commands := map[string][]string{}
	for _, issue := range report.Issues.Medium {
		require.NotNil(t, issue.Fix)
		assert.Equal(t, types.FixCommand, issue.Fix.Kind)
		assert.Empty(t, issue.Fix.Path)
		commands[issue.Location.Path] = issue.Fix.Command
	}
	assert.Equal(t, []string{"git", "rm", "-r", "--cached", "--quiet", "--", "node_modules"}, commands["node_modules"])
	assert.Equal(t, []string{"git", "rm", "-r", "--cached", "--quiet", "--", "bin"}, commands["bin"])

	assert.Empty(t, report.Issues.Low)
	assert.Equal(t, 100-25-5-5, report.Score)
}

func TestGitignoreDetector_Analyze_Errors(t *testing.T) {
	detector, err := NewGitignoreDetector("/tmp", nil)
	require.NoError(t, err)
	_, err = detector.Analyze(context.Background())
	assert.EqualError(t, err, "git is required for gitignore detection")

	listErr := errors.New("not a git repository: /tmp")
	detector.Git = &fakeLister{err: listErr}
	_, err = detector.Analyze(context.Background())
	assert.ErrorIs(t, err, listErr)
}

func TestGitignoreDetector_Analyze_Clean(t *testing.T) {
	detector, err := NewGitignoreDetector("/tmp", &fakeLister{files: []string{"main.go", "go.mod", ".gitignore"}})
	require.NoError(t, err)

	report, err := detector.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Issues.Total())
	assert.Equal(t, 100, report.Score)
}
