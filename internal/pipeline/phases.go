package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/analyzers"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/backlog"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/evaluation"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/events"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/gates"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/health"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/remediation"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/scheduler"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/storage"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// execute runs the analyzers and writes one report per analyzer, then the
// manifest. The manifest is written last so a crash never marks the phase done.
func (c *Controller) execute(ctx context.Context, runID string) error {
	list := c.opts.Analyzers
	if list == nil {
		var lister health.TrackedFileLister
		if c.opts.Git != nil {
			lister = c.opts.Git
		}
		var err error
		list, err = analyzers.FromSpecs(c.opts.Root, c.cfg.Analyzers, lister)
		if err != nil {
			return err
		}
	}

	if err := c.checkReportPaths(list); err != nil {
		return err
	}

	manifest := ExecutionManifest{RunID: runID, StartedAt: c.now(), Analyzers: []AnalyzerEntry{}}
	runner := &analyzers.Runner{
		Concurrency: c.cfg.AnalyzerConcurrency,
		Timeout:     c.cfg.AnalyzerTimeout,
		Logger:      c.logger,
	}
	for _, r := range runner.Run(ctx, list) {
		entry := AnalyzerEntry{Name: r.Name, Domain: r.Domain, Error: r.Err}
		if !r.Failed() {
			entry.ReportPath = c.layout.Report(r.Name)
			entry.Score = r.Report.Score
			entry.Issues = r.Report.Issues.Total()
			if err := storage.WriteJSON(entry.ReportPath, r.Report); err != nil {
				return fmt.Errorf("failed to write report for %s: %w", r.Name, err)
			}
		}
		manifest.Analyzers = append(manifest.Analyzers, entry)
	}
	manifest.FinishedAt = c.now()
	return storage.WriteJSON(c.layout.Execution(), manifest)
}

// checkReportPaths rejects analyzers whose reports would share a file.
func (c *Controller) checkReportPaths(list []analyzers.Analyzer) error {
	owners := make(map[string]string, len(list))
	for _, a := range list {
		path := c.layout.Report(a.Name())
		if prev, ok := owners[path]; ok {
			return fmt.Errorf("analyzers %q and %q would both write %s", prev, a.Name(), path)
		}
		owners[path] = a.Name()
	}
	return nil
}

// loadResults rebuilds analyzer results from the execution artifacts. A report
// that cannot be read counts as an AnalyzerFailure.
func (c *Controller) loadResults() ([]types.AnalyzerResult, error) {
	var manifest ExecutionManifest
	if err := storage.ReadJSON(c.layout.Execution(), &manifest); err != nil {
		return nil, fmt.Errorf("failed to read execution manifest: %w", err)
	}

	results := make([]types.AnalyzerResult, 0, len(manifest.Analyzers))
	for _, entry := range manifest.Analyzers {
		r := types.AnalyzerResult{Name: entry.Name, Domain: entry.Domain, Err: entry.Error}
		if entry.Error == "" {
			var report types.AnalyzerReport
			err := storage.ReadJSON(entry.ReportPath, &report)
			if err == nil {
				err = report.Validate()
			}
			if err != nil {
				failure := &types.AnalyzerFailure{Analyzer: entry.Name, Err: err}
				c.logger.Warn("analyzer report unusable", zap.String("analyzer", entry.Name), zap.Error(failure))
				r.Err = failure.Error()
			} else {
				r.Report = &report
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Controller) evaluate() error {
	results, err := c.loadResults()
	if err != nil {
		return err
	}
	eval, stats := evaluation.Evaluate(results)
	c.logger.Info("evaluation complete",
		zap.Int("concerns", eval.Concerns.Total()),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("conflicts", len(eval.Conflicts)),
		zap.Int("overall", eval.Scores.Overall),
		zap.String("mode", string(eval.Scores.Mode)))
	return storage.WriteJSON(c.layout.Evaluation(), EvaluationArtifact{
		Evaluation:    eval,
		Consolidation: stats,
		EvaluatedAt:   c.now(),
	})
}

func (c *Controller) decide() (*types.DecisionReport, error) {
	var eval EvaluationArtifact
	if err := storage.ReadJSON(c.layout.Evaluation(), &eval); err != nil {
		return nil, fmt.Errorf("failed to read evaluation: %w", err)
	}
	report := gates.Report(eval.Evaluation)
	c.logger.Info("decision rendered",
		zap.String("verdict", string(report.Decision.Verdict)),
		zap.String("rule", report.Decision.Rule),
		zap.String("confidence", string(report.Decision.Confidence)))
	if err := storage.WriteJSON(c.layout.Decision(), report); err != nil {
		return nil, err
	}
	return &report, nil
}

// LoadDecision reads the decision report artifact.
func (c *Controller) LoadDecision() (*types.DecisionReport, error) {
	var report types.DecisionReport
	if err := storage.ReadJSON(c.layout.Decision(), &report); err != nil {
		return nil, fmt.Errorf("failed to read decision report: %w", err)
	}
	return &report, nil
}

// implement folds the decision's concerns into the current backlog and runs
// the next batch. A contract violation aborts before anything is saved.
func (c *Controller) implement(ctx context.Context, runID string) (*ImplementationResult, error) {
	report, err := c.LoadDecision()
	if err != nil {
		return nil, err
	}
	now := c.now()
	result := &ImplementationResult{RunID: runID}

	current, err := c.store.LoadCurrent(ctx)
	switch {
	case errors.Is(err, types.ErrNotFound):
		current = types.NewBacklog(c.cfg.Milestone, c.cfg.Deadline(now))
	case err != nil:
		return nil, fmt.Errorf("failed to load backlog: %w", err)
	default:
		result.Snapshot, err = c.store.Snapshot(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot backlog: %w", err)
		}
	}

	synthesized := backlog.Synthesize(report.Concerns, backlog.SynthesisOptions{
		Milestone: c.cfg.Milestone,
		Deadline:  c.cfg.Deadline(now),
		Now:       now,
	})
	merged, stats := backlog.Merge(current, synthesized, now)
	result.Merge = stats
	c.logger.Info("backlog merged",
		zap.Int("added", stats.Added),
		zap.Int("matched", stats.Matched),
		zap.Int("kept_in_progress", stats.KeptInProgress),
		zap.Int("skipped_done", stats.SkippedDone),
		zap.Int("tasks", len(merged.Tasks)))
	if err := c.store.SaveCurrent(ctx, merged); err != nil {
		return nil, err
	}

	exec, err := c.executor()
	if err != nil {
		return nil, err
	}
	batch := scheduler.NextBatch(merged, c.cfg.MaxTasks)
	result.Batch, err = exec.Run(ctx, merged, batch)
	if err != nil {
		return nil, err
	}

	merged.RecomputeSummary()
	result.Summary = merged.Summary
	result.CompletedAt = c.now()
	if err := storage.WriteJSON(c.layout.Implementation(), result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Controller) executor() (*remediation.Executor, error) {
	cfg := remediation.Config{
		Root:           c.opts.Root,
		DryRun:         c.cfg.DryRun,
		AutoCommit:     c.cfg.AutoCommit && !c.cfg.DryRun,
		CommandTimeout: c.cfg.CommandTimeout,
		CommandRate:    c.cfg.CommandRate,
		Recorder:       c.store,
		Logger:         c.logger,
		Now:            c.now,
	}
	if cfg.AutoCommit {
		cfg.Committer = &remediation.GitCommitter{Git: c.opts.Git, Root: c.opts.Root, Author: c.cfg.CommitAuthor}
	}
	return remediation.NewExecutor(cfg)
}

// approve signs the run off and emits the workflow-complete event.
func (c *Controller) approve(ctx context.Context, runID string) (*gates.ApprovalResult, error) {
	report, err := c.LoadDecision()
	if err != nil {
		return nil, err
	}

	current, err := c.store.LoadCurrent(ctx)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("failed to load backlog: %w", err)
	}
	var summary *types.Summary
	if current != nil {
		summary = &current.Summary
	}

	gate, err := gates.NewApprovalGate(&gates.ApprovalConfig{
		Report:       report,
		Summary:      summary,
		Prompter:     c.opts.Prompter,
		Out:          c.out,
		SkipApproval: c.cfg.SkipApproval,
		Now:          c.now,
	})
	if err != nil {
		return nil, err
	}
	approval, err := gate.Run()
	if err != nil {
		return nil, err
	}
	if err := storage.WriteJSON(c.layout.Approval(), approval); err != nil {
		return nil, err
	}

	event, err := events.NewWorkflowCompleteEvent(runID, report, current, c.layout.Decision(), approval.Approved)
	if err != nil {
		return nil, err
	}
	if err := c.sink.Emit(ctx, event); err != nil {
		c.logger.Warn("failed to deliver feedback event", zap.Error(err))
	}
	return approval, nil
}
