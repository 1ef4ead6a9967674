package health

import (
	"context"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// HealthMonitor defines the interface for built-in code health monitors.
// Each monitor embodies one software engineering principle and reports
// the facts that contradict it.
type HealthMonitor interface {
	// Name returns the unique identifier for this monitor.
	Name() string

	// Domain returns the scoring domain the monitor reports under.
	Domain() string

	// Philosophy returns the principle the monitor checks.
	Philosophy() string

	// Analyze examines the project and returns its report.
	Analyze(ctx context.Context) (*types.AnalyzerReport, error)
}

// Penalties are the score deductions per issue in each bucket.
var Penalties = map[types.Bucket]int{
	types.BucketCritical: 25,
	types.BucketHigh:     10,
	types.BucketMedium:   5,
	types.BucketLow:      2,
}

// Score derives a monitor's 0..100 score from its concerns.
func Score(c *types.ConcernSet) int {
	score := 100
	for _, b := range types.Buckets {
		score -= Penalties[b] * len(c.Bucket(b))
	}
	if score < 0 {
		return 0
	}
	return score
}

// newReport builds a report with non-nil buckets so it serializes as [] rather than null.
func newReport() *types.AnalyzerReport {
	return &types.AnalyzerReport{Issues: types.ConcernSet{
		Critical: []types.Issue{},
		High:     []types.Issue{},
		Medium:   []types.Issue{},
		Low:      []types.Issue{},
	}}
}

// finish computes the score once all issues are in.
func finish(r *types.AnalyzerReport) *types.AnalyzerReport {
	r.Score = Score(&r.Issues)
	return r
}

// Distribution represents a statistical distribution of values.
// Used for outlier detection (N standard deviations from mean).
type Distribution struct {
	Mean   float64
	Median float64
	StdDev float64
	P95    float64 // 95th percentile
	P99    float64 // 99th percentile
	Min    float64
	Max    float64
	Count  int
}

// IsUpperOutlier returns true if the value is N standard deviations above the mean.
func (d Distribution) IsUpperOutlier(value float64, numStdDevs float64) bool {
	if d.StdDev == 0 {
		return false
	}
	return value > d.Mean+(numStdDevs*d.StdDev)
}
