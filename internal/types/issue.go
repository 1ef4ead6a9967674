package types

import (
	"fmt"
	"strings"
)

// Priority is the shared P0..P3 scale used for issue severity and task priority.
// P0 is the most urgent.
type Priority string

const (
	P0 Priority = "P0"
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
)

// Priorities lists every priority in ascending rank order (most urgent first).
var Priorities = []Priority{P0, P1, P2, P3}

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case P0, P1, P2, P3:
		return true
	}
	return false
}

// Ordinal returns 0 for P0 through 3 for P3. Invalid priorities sort last.
func (p Priority) Ordinal() int {
	switch p {
	case P0:
		return 0
	case P1:
		return 1
	case P2:
		return 2
	case P3:
		return 3
	}
	return len(Priorities)
}

// Bucket names a severity bucket of a ConcernSet.
type Bucket string

const (
	BucketCritical Bucket = "critical"
	BucketHigh     Bucket = "high"
	BucketMedium   Bucket = "medium"
	BucketLow      Bucket = "low"
)

// Buckets lists the severity buckets from most to least severe.
var Buckets = []Bucket{BucketCritical, BucketHigh, BucketMedium, BucketLow}

// Category is the structured classification an analyzer attaches to an issue.
// When an analyzer leaves it empty, the classification package derives one
// from its keyword fallback table.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryArchitecture  Category = "architecture"
	CategoryCodeQuality   Category = "code-quality"
	CategoryDocumentation Category = "documentation"
	CategoryTesting       Category = "testing"
	CategoryDependency    Category = "dependency"
	CategoryAccessibility Category = "accessibility"
	CategoryOther         Category = "other"
)

// IsValid checks if the category value is valid
func (c Category) IsValid() bool {
	switch c {
	case CategorySecurity, CategoryPerformance, CategoryArchitecture, CategoryCodeQuality,
		CategoryDocumentation, CategoryTesting, CategoryDependency, CategoryAccessibility, CategoryOther:
		return true
	}
	return false
}

// Location points at the place in the target project an issue refers to.
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

// Issue is a single analyzer finding. Issues are immutable once an analyzer
// produced them; consolidation works on copies.
type Issue struct {
	Message  string         `json:"message"`
	Type     string         `json:"type"`
	Severity Priority       `json:"severity,omitempty"`
	Category Category       `json:"category,omitempty"`
	Source   string         `json:"source,omitempty"`
	Location *Location      `json:"location,omitempty"`
	Fix      *FixSuggestion `json:"fix,omitempty"`
}

// FixSuggestion is an optional machine-applicable remediation proposed by the
// analyzer that reported the issue.
type FixSuggestion struct {
	Kind FixKind `json:"kind"`
	Path string  `json:"path"`
	FixPayload
}

// ConcernSet groups issues by severity bucket.
type ConcernSet struct {
	Critical []Issue `json:"critical"`
	High     []Issue `json:"high"`
	Medium   []Issue `json:"medium"`
	Low      []Issue `json:"low"`
}

// Bucket returns the issues in the named bucket.
func (c *ConcernSet) Bucket(b Bucket) []Issue {
	switch b {
	case BucketCritical:
		return c.Critical
	case BucketHigh:
		return c.High
	case BucketMedium:
		return c.Medium
	case BucketLow:
		return c.Low
	}
	return nil
}

// Append adds an issue to the named bucket.
func (c *ConcernSet) Append(b Bucket, issue Issue) {
	switch b {
	case BucketCritical:
		c.Critical = append(c.Critical, issue)
	case BucketHigh:
		c.High = append(c.High, issue)
	case BucketMedium:
		c.Medium = append(c.Medium, issue)
	case BucketLow:
		c.Low = append(c.Low, issue)
	}
}

// Counts returns the number of issues per bucket.
func (c *ConcernSet) Counts() IssueCounts {
	return IssueCounts{
		Critical: len(c.Critical),
		High:     len(c.High),
		Medium:   len(c.Medium),
		Low:      len(c.Low),
	}
}

// Total returns the number of issues across all buckets.
func (c *ConcernSet) Total() int {
	return c.Counts().Total()
}

// IssueCounts summarizes a ConcernSet.
type IssueCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum of all bucket counts.
func (c IssueCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// AnalyzerReport is the document each external analyzer produces.
type AnalyzerReport struct {
	Issues ConcernSet `json:"issues"`
	Score  int        `json:"score"`
}

// Validate checks the report's score range.
func (r *AnalyzerReport) Validate() error {
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100 (got %d)", r.Score)
	}
	return nil
}

// AnalyzerResult is one analyzer's outcome inside a pipeline run. A nil
// Report means the analyzer failed; Err carries why.
type AnalyzerResult struct {
	Name   string          `json:"name"`
	Domain string          `json:"domain"`
	Report *AnalyzerReport `json:"report,omitempty"`
	Err    string          `json:"error,omitempty"`
}

// Failed reports whether the analyzer produced no usable report.
func (r AnalyzerResult) Failed() bool {
	return r.Report == nil
}

// DomainName returns the scoring domain, defaulting to the analyzer name.
func (r AnalyzerResult) DomainName() string {
	if strings.TrimSpace(r.Domain) != "" {
		return r.Domain
	}
	return r.Name
}
