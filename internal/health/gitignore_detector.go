package health

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// TrackedFileLister lists the files under version control. *git.Git satisfies it.
type TrackedFileLister interface {
	ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error)
}

// patternGroup is one class of files that should not be tracked.
type patternGroup struct {
	Name     string
	Category types.Category
	Bucket   types.Bucket
	Patterns []string
}

// GitignoreDetector identifies files tracked in git that should be in .gitignore.
// Tracked secrets are critical and left to a human; everything else gets a
// "git rm --cached" fix.
type GitignoreDetector struct {
	// RootPath is the codebase root directory
	RootPath string

	// Groups are checked in order; a file is reported under the first match.
	Groups []patternGroup

	Git TrackedFileLister
}

// NewGitignoreDetector creates a gitignore detector with sensible defaults.
func NewGitignoreDetector(rootPath string, lister TrackedFileLister) (*GitignoreDetector, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid root path %q: %w", rootPath, err)
	}

	return &GitignoreDetector{
		RootPath: absPath,
		Git:      lister,
		Groups: []patternGroup{
			{
				Name: "secrets", Category: types.CategorySecurity, Bucket: types.BucketCritical,
				Patterns: []string{
					".env",
					".env.*",
					"*.pem",
					"*.key",
					"*.p12",
					"*.pfx",
					"credentials.json",
					"secrets.yaml",
					"secrets.yml",
					"*_rsa",
					"*_dsa",
					"*_ecdsa",
					"*_ed25519",
					"id_rsa*",
					"id_dsa*",
				},
			},
			{
				Name: "build artifacts", Category: types.CategoryCodeQuality, Bucket: types.BucketMedium,
				Patterns: []string{
					"*.o",
					"*.so",
					"*.dylib",
					"*.dll",
					"*.exe",
					"*.out",
					"*.a",
					"*.lib",
					"dist/",
					"build/",
					"target/",
					"bin/",
					"obj/",
					"*.pyc",
					"*.pyo",
					"__pycache__/",
					"*.class",
				},
			},
			{
				Name: "dependencies", Category: types.CategoryDependency, Bucket: types.BucketMedium,
				Patterns: []string{
					"node_modules/",
					"bower_components/",
					".bundle/",
					"Pods/",
				},
			},
			{
				Name: "editor files", Category: types.CategoryCodeQuality, Bucket: types.BucketLow,
				Patterns: []string{
					".vscode/",
					".idea/",
					"*.swp",
					"*.swo",
					"*~",
					"*.sublime-workspace",
				},
			},
			{
				Name: "os files", Category: types.CategoryCodeQuality, Bucket: types.BucketLow,
				Patterns: []string{
					".DS_Store",
					"Thumbs.db",
					"Desktop.ini",
				},
			},
		},
	}, nil
}

// Name implements HealthMonitor.
func (d *GitignoreDetector) Name() string {
	return "gitignore"
}

// Domain implements HealthMonitor.
func (d *GitignoreDetector) Domain() string {
	return "security"
}

// Philosophy implements HealthMonitor.
func (d *GitignoreDetector) Philosophy() string {
	return "Source control should track source code and configuration, not " +
		"build artifacts, dependencies, secrets, or environment-specific files."
}

// Analyze implements HealthMonitor. It fails when the root is not a git repository.
func (d *GitignoreDetector) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	if d.Git == nil {
		return nil, fmt.Errorf("git is required for gitignore detection")
	}
	tracked, err := d.Git.ListTrackedFiles(ctx, d.RootPath)
	if err != nil {
		return nil, err
	}

	report := newReport()
	for _, v := range d.findViolations(tracked) {
		issue := types.Issue{
			Type:     "gitignore",
			Category: v.Group.Category,
			Source:   d.Name(),
			Location: &types.Location{Path: v.Path},
		}
		if v.Group.Bucket == types.BucketCritical {
			issue.Message = fmt.Sprintf("%s is tracked in git and looks like a secret (%s); rotate it and purge it from history", v.Path, v.Pattern)
		} else {
			issue.Message = fmt.Sprintf("stop tracking %s (%s, matches %s) and add it to .gitignore", v.Path, v.Group.Name, v.Pattern)
			issue.Fix = &types.FixSuggestion{
				Kind:       types.FixCommand,
				FixPayload: types.FixPayload{Command: []string{"git", "rm", "-r", "--cached", "--quiet", "--", v.Path}},
			}
		}
		report.Issues.Append(v.Group.Bucket, issue)
	}
	return finish(report), nil
}

// gitignoreViolation represents a tracked file that matches gitignore patterns.
type gitignoreViolation struct {
	Path    string
	Group   *patternGroup
	Pattern string // Which specific pattern matched
}

// findViolations identifies tracked files that match gitignore patterns.
// Files under a matched directory are reported once, as the directory.
func (d *GitignoreDetector) findViolations(trackedFiles []string) []gitignoreViolation {
	var violations []gitignoreViolation
	seen := map[string]bool{}

	for _, file := range trackedFiles {
		v, ok := d.match(file)
		if !ok || seen[v.Path] {
			continue
		}
		seen[v.Path] = true
		violations = append(violations, v)
	}

	return violations
}

func (d *GitignoreDetector) match(file string) (gitignoreViolation, bool) {
	for i := range d.Groups {
		group := &d.Groups[i]
		for _, pattern := range group.Patterns {
			if path, ok := matchPattern(file, pattern); ok {
				return gitignoreViolation{Path: path, Group: group, Pattern: pattern}, true
			}
		}
	}
	return gitignoreViolation{}, false
}

// matchPattern checks if a file path matches a gitignore-style pattern and
// returns the path that should stop being tracked.
func matchPattern(path, pattern string) (string, bool) {
	// Directory patterns match the directory at any depth
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")
		if strings.HasPrefix(path, dir+"/") {
			return dir, true
		}
		if idx := strings.Index(path, "/"+dir+"/"); idx >= 0 {
			return path[:idx+1+len(dir)], true
		}
		return "", false
	}

	if strings.Contains(pattern, "*") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return path, true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return path, true
		}
		return "", false
	}

	// Exact match (filename or full path)
	if filepath.Base(path) == pattern || path == pattern {
		return path, true
	}
	return "", false
}
