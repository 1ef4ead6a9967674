package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// CruftDetector identifies backup files, temp files, and other development
// artifacts that shouldn't be in the project tree. Every hit carries a
// delete fix.
type CruftDetector struct {
	// RootPath is the codebase root directory
	RootPath string

	// CruftPatterns are file name globs that indicate cruft
	CruftPatterns []string

	// ExcludePatterns for files/directories to skip
	ExcludePatterns []string
}

// NewCruftDetector creates a cruft detector with sensible defaults.
func NewCruftDetector(rootPath string) (*CruftDetector, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid root path %q: %w", rootPath, err)
	}

	return &CruftDetector{
		RootPath: absPath,
		CruftPatterns: []string{
			"*.bak",      // Backup files
			"*.tmp",      // Temporary files
			"*.temp",     // Temporary files
			"*.old",      // Old versions
			"*.orig",     // Merge leftovers
			"*.rej",      // Rejected patch hunks
			"*_backup.*", // Naming pattern: foo_backup.go
			"*_old.*",    // Naming pattern: foo_old.go
			"*.swp",      // Vim swap files
			"*.swo",      // Vim swap files
			"*~",         // Editor backup files
			".DS_Store",  // macOS cruft
			"Thumbs.db",  // Windows cruft
		},
		ExcludePatterns: []string{
			"vendor/",
			".git/",
			"testdata/", // Test fixtures are legitimate
			"node_modules/",
			".factory/", // Pipeline state
		},
	}, nil
}

// Name implements HealthMonitor.
func (d *CruftDetector) Name() string {
	return "cruft"
}

// Domain implements HealthMonitor.
func (d *CruftDetector) Domain() string {
	return "codeQuality"
}

// Philosophy implements HealthMonitor.
func (d *CruftDetector) Philosophy() string {
	return "Development artifacts (backups, temp files, editor swap files) do not " +
		"belong in the source tree. Version control provides history and backup."
}

// Analyze implements HealthMonitor.
func (d *CruftDetector) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	report := newReport()

	files, err := d.scanFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}

	for _, f := range files {
		report.Issues.Append(types.BucketLow, types.Issue{
			Message:  fmt.Sprintf("remove leftover file %s (matches %s)", f.Path, f.Pattern),
			Type:     "cruft",
			Category: types.CategoryCodeQuality,
			Source:   d.Name(),
			Location: &types.Location{Path: f.Path},
			Fix:      &types.FixSuggestion{Kind: types.FixDelete, Path: f.Path},
		})
	}
	return finish(report), nil
}

// cruftFile represents a file that matches cruft patterns.
type cruftFile struct {
	Path    string
	Pattern string // Which pattern matched
}

// scanFiles walks the directory tree and finds files matching cruft patterns.
func (d *CruftDetector) scanFiles(ctx context.Context) ([]cruftFile, error) {
	var files []cruftFile

	err := filepath.Walk(d.RootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(d.RootPath, path)
		if err != nil || relPath == "." {
			return nil
		}

		if ShouldExcludePath(relPath, info, d.ExcludePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		fileName := filepath.Base(path)
		for _, pattern := range d.CruftPatterns {
			matched, err := filepath.Match(pattern, fileName)
			if err != nil {
				// Invalid pattern, skip it
				continue
			}
			if matched {
				files = append(files, cruftFile{
					Path:    filepath.ToSlash(relPath),
					Pattern: pattern,
				})
				break // Only record once per file
			}
		}

		return nil
	})

	return files, err
}
