package health

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// FileSizeMonitor detects oversized files using statistical analysis rather
// than a fixed line limit: a file is reported when it is an outlier against
// the project's own size distribution.
type FileSizeMonitor struct {
	// RootPath is the codebase root directory
	RootPath string

	// OutlierThreshold is number of standard deviations for outlier detection
	// Default: 2.5 (files >2.5σ from mean are reported)
	OutlierThreshold float64

	// MinFiles is the smallest sample the distribution is trusted for.
	// Default: 5
	MinFiles int

	// FileExtensions to scan (default: [".go"])
	FileExtensions []string

	// ExcludePatterns for files/directories to skip
	ExcludePatterns []string
}

// NewFileSizeMonitor creates a file size monitor with sensible defaults.
func NewFileSizeMonitor(rootPath string) (*FileSizeMonitor, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid root path %q: %w", rootPath, err)
	}

	return &FileSizeMonitor{
		RootPath:         absPath,
		OutlierThreshold: 2.5,
		MinFiles:         5,
		FileExtensions:   []string{".go"},
		ExcludePatterns: []string{
			"vendor/",
			".git/",
			".factory/",
			"_test.go",
			".pb.go",  // Generated protobuf
			".gen.go", // Other generated code
			"testdata/",
		},
	}, nil
}

// Name implements HealthMonitor.
func (m *FileSizeMonitor) Name() string {
	return "file-size"
}

// Domain implements HealthMonitor.
func (m *FileSizeMonitor) Domain() string {
	return "architecture"
}

// Philosophy implements HealthMonitor.
func (m *FileSizeMonitor) Philosophy() string {
	return "Files should be focused on a single responsibility. " +
		"Oversized files often indicate missing abstractions or unclear boundaries."
}

// Analyze implements HealthMonitor.
func (m *FileSizeMonitor) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	report := newReport()

	fileSizes, err := m.scanFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}
	if len(fileSizes) < m.MinFiles {
		return finish(report), nil
	}

	dist := m.calculateDistribution(fileSizes)
	for _, o := range m.findOutliers(fileSizes, dist) {
		bucket := m.calculateSeverity(o.Lines, dist)
		report.Issues.Append(bucket, types.Issue{
			Message: fmt.Sprintf("%s has %d lines (%.1fσ above the project mean of %.0f); split it along its responsibilities",
				o.Path, o.Lines, (float64(o.Lines)-dist.Mean)/dist.StdDev, dist.Mean),
			Type:     "file-size",
			Category: types.CategoryArchitecture,
			Source:   m.Name(),
			Location: &types.Location{Path: o.Path},
		})
	}
	return finish(report), nil
}

// fileSize represents a file and its line count.
type fileSize struct {
	Path  string
	Lines int
}

// scanFiles walks the directory tree and counts lines in matching files.
func (m *FileSizeMonitor) scanFiles(ctx context.Context) ([]fileSize, error) {
	var sizes []fileSize

	err := filepath.Walk(m.RootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(m.RootPath, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}

		if ShouldExcludePath(relPath, info, m.ExcludePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		hasExt := false
		for _, ext := range m.FileExtensions {
			if strings.HasSuffix(path, ext) {
				hasExt = true
				break
			}
		}
		if !hasExt {
			return nil
		}

		lines, err := countLines(path)
		if err != nil {
			// Unreadable files are skipped, not fatal
			return nil
		}

		sizes = append(sizes, fileSize{
			Path:  filepath.ToSlash(relPath),
			Lines: lines,
		})

		return nil
	})

	return sizes, err
}

// countLines counts lines in a file using streaming to avoid memory exhaustion.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count++
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}

	return count, nil
}

// calculateDistribution computes statistical distribution of file sizes.
func (m *FileSizeMonitor) calculateDistribution(sizes []fileSize) Distribution {
	if len(sizes) == 0 {
		return Distribution{}
	}

	sorted := make([]int, len(sizes))
	sum := 0
	for i, s := range sizes {
		sorted[i] = s.Lines
		sum += s.Lines
	}
	sort.Ints(sorted)
	mean := float64(sum) / float64(len(sorted))

	variance := 0.0
	for _, l := range sorted {
		diff := float64(l) - mean
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(len(sorted)))

	// Percentiles with bounds checking for small datasets
	p95Idx := int(float64(len(sorted)) * 0.95)
	if p95Idx >= len(sorted) {
		p95Idx = len(sorted) - 1
	}
	p99Idx := int(float64(len(sorted)) * 0.99)
	if p99Idx >= len(sorted) {
		p99Idx = len(sorted) - 1
	}

	return Distribution{
		Mean:   mean,
		Median: float64(sorted[len(sorted)/2]),
		StdDev: stdDev,
		P95:    float64(sorted[p95Idx]),
		P99:    float64(sorted[p99Idx]),
		Min:    float64(sorted[0]),
		Max:    float64(sorted[len(sorted)-1]),
		Count:  len(sorted),
	}
}

// findOutliers identifies files that are statistical outliers, largest first.
func (m *FileSizeMonitor) findOutliers(sizes []fileSize, dist Distribution) []fileSize {
	var outliers []fileSize
	for _, s := range sizes {
		if dist.IsUpperOutlier(float64(s.Lines), m.OutlierThreshold) {
			outliers = append(outliers, s)
		}
	}

	sort.SliceStable(outliers, func(i, j int) bool {
		if outliers[i].Lines != outliers[j].Lines {
			return outliers[i].Lines > outliers[j].Lines
		}
		return outliers[i].Path < outliers[j].Path
	})

	return outliers
}

// calculateSeverity maps how extreme the outlier is onto a bucket.
func (m *FileSizeMonitor) calculateSeverity(lines int, dist Distribution) types.Bucket {
	if dist.StdDev == 0 {
		return types.BucketMedium
	}

	stdDevsAbove := (float64(lines) - dist.Mean) / dist.StdDev

	if stdDevsAbove > 4.0 {
		return types.BucketHigh
	} else if stdDevsAbove > 3.0 {
		return types.BucketMedium
	}
	return types.BucketLow
}
