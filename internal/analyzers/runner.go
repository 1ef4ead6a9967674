package analyzers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Runner executes analyzers concurrently. Analyzers never see each other's
// output, so each one writes only its own result slot.
type Runner struct {
	// Concurrency bounds parallel analyzers. Zero or less means unbounded.
	Concurrency int
	// Timeout bounds each analyzer. Zero means no per-analyzer bound.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Run executes every analyzer and returns results in input order. A failing
// analyzer is an AnalyzerFailure: logged and reported with a nil Report, never
// fatal. Cancelling ctx fails the analyzers that have not finished.
func (r *Runner) Run(ctx context.Context, list []Analyzer) []types.AnalyzerResult {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]types.AnalyzerResult, len(list))
	var g errgroup.Group
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}

	for i, a := range list {
		g.Go(func() error {
			start := time.Now()
			report, err := r.runOne(ctx, a)
			results[i] = types.AnalyzerResult{Name: a.Name(), Domain: a.Domain(), Report: report}
			if err != nil {
				failure := &types.AnalyzerFailure{Analyzer: a.Name(), Err: err}
				results[i].Err = failure.Error()
				logger.Warn("analyzer failed",
					zap.String("analyzer", a.Name()),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(failure))
				return nil
			}
			logger.Info("analyzer finished",
				zap.String("analyzer", a.Name()),
				zap.Int("score", report.Score),
				zap.Int("issues", report.Issues.Total()),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, a Analyzer) (report *types.AnalyzerReport, err error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			report, err = nil, fmt.Errorf("analyzer panicked: %v", p)
		}
	}()

	report, err = a.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("analyzer returned no report")
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}
	return report, nil
}
