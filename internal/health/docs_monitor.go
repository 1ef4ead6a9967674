package health

import (
	"bufio"
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// readmeNames are accepted spellings of the project readme.
var readmeNames = []string{"README.md", "README", "README.txt", "README.rst", "readme.md"}

// licenseNames are accepted spellings of the license file.
var licenseNames = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"}

// DocsMonitor checks that the project explains itself: a readme with some
// substance, a license, and a package comment on every Go package.
type DocsMonitor struct {
	// RootPath is the codebase root directory
	RootPath string

	// MinReadmeLines is the number of non-blank lines below which the readme
	// is reported as a stub. Default: 5
	MinReadmeLines int

	// ExcludePatterns for files/directories to skip
	ExcludePatterns []string
}

// NewDocsMonitor creates a documentation monitor with sensible defaults.
func NewDocsMonitor(rootPath string) (*DocsMonitor, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid root path %q: %w", rootPath, err)
	}
	return &DocsMonitor{
		RootPath:       absPath,
		MinReadmeLines: 5,
		ExcludePatterns: []string{
			"vendor/",
			".git/",
			".factory/",
			"testdata/",
			"node_modules/",
			"_examples/",
		},
	}, nil
}

// Name implements HealthMonitor.
func (m *DocsMonitor) Name() string {
	return "docs"
}

// Domain implements HealthMonitor.
func (m *DocsMonitor) Domain() string {
	return "documentation"
}

// Philosophy implements HealthMonitor.
func (m *DocsMonitor) Philosophy() string {
	return "A reader should learn what a project and each of its packages are for " +
		"without reading the code first."
}

// Analyze implements HealthMonitor.
func (m *DocsMonitor) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	report := newReport()

	readme := firstExisting(m.RootPath, readmeNames)
	switch {
	case readme == "":
		report.Issues.Append(types.BucketHigh, types.Issue{
			Message:  "project has no README",
			Type:     "missing-readme",
			Category: types.CategoryDocumentation,
			Source:   m.Name(),
			Location: &types.Location{Path: "README.md"},
			Fix: &types.FixSuggestion{
				Kind:       types.FixCreate,
				Path:       "README.md",
				FixPayload: types.FixPayload{Content: readmeTemplate(filepath.Base(m.RootPath))},
			},
		})
	default:
		lines, err := countNonBlankLines(filepath.Join(m.RootPath, readme))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", readme, err)
		}
		if lines < m.MinReadmeLines {
			report.Issues.Append(types.BucketMedium, types.Issue{
				Message:  fmt.Sprintf("%s is a stub (%d non-blank lines); describe usage and setup", readme, lines),
				Type:     "readme-stub",
				Category: types.CategoryDocumentation,
				Source:   m.Name(),
				Location: &types.Location{Path: readme},
			})
		}
	}

	if firstExisting(m.RootPath, licenseNames) == "" {
		report.Issues.Append(types.BucketLow, types.Issue{
			Message:  "project has no LICENSE file",
			Type:     "missing-license",
			Category: types.CategoryDocumentation,
			Source:   m.Name(),
		})
	}

	undocumented, err := m.undocumentedPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning packages: %w", err)
	}
	for _, dir := range undocumented {
		report.Issues.Append(types.BucketLow, types.Issue{
			Message:  fmt.Sprintf("package in %s has no package comment", dir),
			Type:     "package-doc",
			Category: types.CategoryDocumentation,
			Source:   m.Name(),
			Location: &types.Location{Path: dir},
		})
	}

	return finish(report), nil
}

// undocumentedPackages returns the directories holding Go packages where no
// non-test file carries a package comment.
func (m *DocsMonitor) undocumentedPackages(ctx context.Context) ([]string, error) {
	documented := map[string]bool{}

	err := filepath.Walk(m.RootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, err := filepath.Rel(m.RootPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		if ShouldExcludePath(relPath, info, m.ExcludePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		dir := filepath.ToSlash(filepath.Dir(relPath))
		if documented[dir] {
			return nil
		}
		f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.PackageClauseOnly|parser.ParseComments)
		if err != nil {
			// Unparseable files are another analyzer's concern
			if _, seen := documented[dir]; !seen {
				documented[dir] = false
			}
			return nil
		}
		documented[dir] = f.Doc != nil && strings.TrimSpace(f.Doc.Text()) != ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	var missing []string
	for dir, ok := range documented {
		if !ok {
			missing = append(missing, dir)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

func firstExisting(root string, names []string) string {
	for _, name := range names {
		if info, err := os.Stat(filepath.Join(root, name)); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

func countNonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	return count, scanner.Err()
}

func readmeTemplate(project string) string {
	return fmt.Sprintf(`# %s

## Overview

Describe what this project does and who it is for.

## Getting started

List prerequisites and the commands to build and run it.

## Usage

Show the most common invocation.
`, project)
}
