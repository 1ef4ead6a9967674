package remediation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/priorities"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Outcome classifies what happened to one task in a batch.
type Outcome string

const (
	OutcomeDone         Outcome = "done"
	OutcomeManualReview Outcome = "requires-manual-review"
	OutcomeSkipped      Outcome = "skipped"
)

// TaskResult reports the handling of one task.
type TaskResult struct {
	TaskID     string        `json:"taskId"`
	FixKind    types.FixKind `json:"fixKind,omitempty"`
	Outcome    Outcome       `json:"outcome"`
	DryRun     bool          `json:"dryRun,omitempty"`
	Error      string        `json:"error,omitempty"`
	CommitHash string        `json:"commitHash,omitempty"`
}

// BatchResult reports a whole executor run.
type BatchResult struct {
	Tasks        []TaskResult `json:"tasks"`
	Done         int          `json:"done"`
	ManualReview int          `json:"manualReview"`
	Skipped      int          `json:"skipped"`
	DryRun       bool         `json:"dryRun"`
}

// Recorder persists the backlog after each status change.
type Recorder interface {
	SaveCurrent(ctx context.Context, b *types.Backlog) error
}

// Committer records a completed task in version control.
type Committer interface {
	Commit(ctx context.Context, task types.RemediationTask, paths []string) (string, error)
}

// Config holds executor configuration
type Config struct {
	Root           string
	DryRun         bool
	AutoCommit     bool
	CommandTimeout time.Duration
	// CommandRate limits command fixes per second. Zero means unlimited.
	CommandRate float64

	Recorder   Recorder         // Required unless DryRun
	Committer  Committer        // Optional: required for AutoCommit
	Strategies Registry         // Optional: defaults to DefaultRegistry()
	Logger     *zap.Logger      // Optional
	Now        func() time.Time // Optional: clock override for tests
}

// Executor applies the fixes of a task batch, one task at a time.
type Executor struct {
	cfg        Config
	env        Env
	strategies Registry
	logger     *zap.Logger
	now        func() time.Time
}

// NewExecutor creates a new remediation executor
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if cfg.Recorder == nil && !cfg.DryRun {
		return nil, fmt.Errorf("recorder is required")
	}
	if cfg.AutoCommit && cfg.Committer == nil {
		return nil, fmt.Errorf("committer is required when auto-commit is enabled")
	}

	e := &Executor{
		cfg:        cfg,
		strategies: cfg.Strategies,
		logger:     cfg.Logger,
		now:        cfg.Now,
		env: Env{
			Root:           cfg.Root,
			CommandTimeout: cfg.CommandTimeout,
		},
	}
	if e.strategies == nil {
		e.strategies = DefaultRegistry()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.CommandRate > 0 {
		e.env.Limiter = rate.NewLimiter(rate.Limit(cfg.CommandRate), 1)
	}
	return e, nil
}

// Run processes the batch sequentially against the live backlog. Each task
// moves todo -> in-progress -> done | requires-manual-review, and the backlog
// is persisted after every transition. There is exactly one attempt per task.
//
// In dry-run mode the same planning and validation run, but nothing is
// written, committed or persisted and task statuses are left unchanged.
//
// Run only returns an error when the backlog cannot be persisted; the batch
// stops there so the recorded state never lags the project.
func (e *Executor) Run(ctx context.Context, b *types.Backlog, batch []types.RemediationTask) (*BatchResult, error) {
	result := &BatchResult{Tasks: []TaskResult{}, DryRun: e.cfg.DryRun}

	for _, queued := range batch {
		tr, err := e.runTask(ctx, b, queued.ID)
		if tr != nil {
			result.Tasks = append(result.Tasks, *tr)
			switch tr.Outcome {
			case OutcomeDone:
				result.Done++
			case OutcomeManualReview:
				result.ManualReview++
			case OutcomeSkipped:
				result.Skipped++
			}
		}
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Executor) runTask(ctx context.Context, b *types.Backlog, id string) (*TaskResult, error) {
	task := b.Task(id)
	if task == nil {
		e.logger.Warn("task not in backlog, skipping", zap.String("task", id))
		return &TaskResult{TaskID: id, Outcome: OutcomeSkipped, Error: "task not in backlog"}, nil
	}
	tr := &TaskResult{TaskID: id, FixKind: task.FixKind, DryRun: e.cfg.DryRun}

	if !priorities.IsAutoFixable(task.Priority) {
		e.logger.Info("refusing to auto-fix task", zap.String("task", id), zap.String("priority", string(task.Priority)))
		tr.Outcome = OutcomeSkipped
		tr.Error = fmt.Sprintf("priority %s is never auto-fixed", task.Priority)
		return tr, nil
	}
	if task.Status.IsTerminal() {
		tr.Outcome = OutcomeSkipped
		tr.Error = fmt.Sprintf("task is already %s", task.Status)
		return tr, nil
	}

	if e.cfg.DryRun {
		_, err := e.attempt(ctx, task, false)
		e.classify(tr, err)
		e.logger.Info("dry-run task", zap.String("task", id), zap.String("outcome", string(tr.Outcome)), zap.String("error", tr.Error))
		return tr, nil
	}

	if task.Status == types.TaskTodo {
		if err := e.transition(ctx, b, task, types.TaskInProgress, ""); err != nil {
			return nil, err
		}
	}

	mutation, fixErr := e.attempt(ctx, task, true)
	e.classify(tr, fixErr)
	next := types.TaskDone
	if fixErr != nil {
		next = types.TaskRequiresManualReview
		e.logger.Warn("fix failed, task requires manual review",
			zap.String("task", id), zap.String("fix_kind", string(task.FixKind)), zap.Error(fixErr))
	}
	if err := e.transition(ctx, b, task, next, tr.Error); err != nil {
		return tr, err
	}

	if fixErr == nil && e.cfg.AutoCommit {
		e.commit(ctx, b, task, mutation, tr)
	}
	return tr, nil
}

// attempt plans, optionally applies, and validates the task's fix.
func (e *Executor) attempt(ctx context.Context, task *types.RemediationTask, apply bool) (*Mutation, error) {
	if task.FixKind == "" {
		return nil, &types.FixApplicationError{TaskID: task.ID, Err: errors.New("no automated fix available")}
	}
	strategy, ok := e.strategies[task.FixKind]
	if !ok {
		return nil, &types.FixApplicationError{TaskID: task.ID, FixKind: task.FixKind, Err: errors.New("no strategy registered")}
	}

	m, err := strategy.Plan(ctx, e.env, task)
	if err != nil {
		return nil, &types.FixApplicationError{TaskID: task.ID, FixKind: task.FixKind, Err: err}
	}
	if apply {
		if err := strategy.Apply(ctx, e.env, m); err != nil {
			return m, &types.FixApplicationError{TaskID: task.ID, FixKind: task.FixKind, Err: err}
		}
	}
	if m.Content != nil {
		if err := ValidateContent(m.Path, m.Content); err != nil {
			return m, &types.ValidationError{Path: m.RelPath, Err: err}
		}
	}
	return m, nil
}

func (e *Executor) classify(tr *TaskResult, err error) {
	if err == nil {
		tr.Outcome = OutcomeDone
		return
	}
	tr.Outcome = OutcomeManualReview
	tr.Error = err.Error()
}

func (e *Executor) transition(ctx context.Context, b *types.Backlog, task *types.RemediationTask, to types.TaskStatus, errMsg string) error {
	if !task.Status.CanTransitionTo(to) {
		return fmt.Errorf("task %s: invalid transition %s -> %s", task.ID, task.Status, to)
	}
	now := e.now()
	task.Status = to
	task.UpdatedAt = now
	task.Error = errMsg
	if to == types.TaskDone {
		task.CompletedAt = &now
	}
	return e.persist(ctx, b)
}

func (e *Executor) persist(ctx context.Context, b *types.Backlog) error {
	b.RecomputeSummary()
	b.UpdatedAt = e.now()
	if err := e.cfg.Recorder.SaveCurrent(ctx, b); err != nil {
		return fmt.Errorf("failed to persist backlog: %w", err)
	}
	return nil
}

// commit records the change. A failed commit is logged and leaves the task done.
func (e *Executor) commit(ctx context.Context, b *types.Backlog, task *types.RemediationTask, m *Mutation, tr *TaskResult) {
	var paths []string
	if m != nil && m.RelPath != "" && m.Kind != types.FixCommand {
		paths = []string{m.RelPath}
	}
	hash, err := e.cfg.Committer.Commit(ctx, task.Clone(), paths)
	if err != nil {
		e.logger.Warn("commit failed, task stays done", zap.String("task", task.ID), zap.Error(err))
		return
	}
	if hash == "" {
		e.logger.Debug("fix left nothing to commit", zap.String("task", task.ID))
		return
	}
	task.CommitHash = hash
	tr.CommitHash = hash
	if err := e.persist(ctx, b); err != nil {
		e.logger.Warn("failed to record commit hash", zap.String("task", task.ID), zap.Error(err))
	}
}
